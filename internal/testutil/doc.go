// Package testutil contains helper builders and doubles used across tests to
// reduce boilerplate when constructing chat messages, sessions and external
// agents. They are not intended for production usage.
package testutil
