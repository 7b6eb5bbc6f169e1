// Package provider builds a model.Model from an opaque backend configuration
// map such as the llm_config carried by agent configuration.
package provider

import (
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/model"
	anthropicmodel "github.com/hupe1980/meepo/model/anthropic"
	openaimodel "github.com/hupe1980/meepo/model/openai"
)

// Recognised configuration keys.
const (
	KeyProvider    = "provider"
	KeyModel       = "model"
	KeyTemperature = "temperature"
	KeyMaxTokens   = "max_tokens"
	KeyAPIKey      = "api_key"
	KeyBaseURL     = "base_url"
)

// Supported provider names.
const (
	Placeholder = "placeholder"
	OpenAI      = "openai"
	Anthropic   = "anthropic"
)

// Supported lists the provider names New accepts.
func Supported() []string { return []string{Placeholder, OpenAI, Anthropic} }

// New returns the model selected by cfg["provider"]. A missing provider
// selects the placeholder model so agents stay usable without credentials.
// API keys fall back to OPENAI_API_KEY / ANTHROPIC_API_KEY.
func New(cfg map[string]any) (model.Model, error) {
	name := strings.ToLower(stringValue(cfg, KeyProvider))
	switch name {
	case "", Placeholder:
		return model.NewPlaceholderModel(), nil
	case OpenAI:
		return newOpenAI(cfg)
	case Anthropic:
		return newAnthropic(cfg)
	default:
		return nil, &core.UnsupportedTypeError{Kind: "model provider", Type: name, Supported: Supported()}
	}
}

func newOpenAI(cfg map[string]any) (model.Model, error) {
	temp, err := floatValue(cfg, KeyTemperature)
	if err != nil {
		return nil, err
	}
	maxTokens, err := intValue(cfg, KeyMaxTokens)
	if err != nil {
		return nil, err
	}

	var clientOpts []option.RequestOption
	apiKey := stringValue(cfg, KeyAPIKey)
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	if base := stringValue(cfg, KeyBaseURL); base != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(base))
	}

	return openaimodel.NewModel(func(o *openaimodel.Options) {
		if m := stringValue(cfg, KeyModel); m != "" {
			o.Model = m
		}
		if temp != nil {
			o.Temperature = *temp
		}
		if maxTokens != nil {
			o.MaxCompletionTokens = int64(*maxTokens)
		}
		o.ClientOptions = clientOpts
	}), nil
}

func newAnthropic(cfg map[string]any) (model.Model, error) {
	temp, err := floatValue(cfg, KeyTemperature)
	if err != nil {
		return nil, err
	}
	maxTokens, err := intValue(cfg, KeyMaxTokens)
	if err != nil {
		return nil, err
	}

	apiKey := stringValue(cfg, KeyAPIKey)
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
		if m := stringValue(cfg, KeyModel); m != "" {
			o.Model = anthropic.Model(m)
		}
		if temp != nil {
			o.Temperature = *temp
		}
		if maxTokens != nil {
			o.MaxTokens = int64(*maxTokens)
		}
		o.APIKey = apiKey
	}), nil
}

func stringValue(cfg map[string]any, key string) string {
	if v, ok := cfg[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func floatValue(cfg map[string]any, key string) (*float64, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil, &core.ValidationError{Field: key, Value: v, Message: "must be a number"}
	}
	return &f, nil
}

func intValue(cfg map[string]any, key string) (*int, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil, nil
	}
	var i int
	switch n := v.(type) {
	case int:
		i = n
	case int64:
		i = int(n)
	case float64:
		if n != float64(int(n)) {
			return nil, &core.ValidationError{Field: key, Value: v, Message: "must be an integer"}
		}
		i = int(n)
	default:
		return nil, &core.ValidationError{Field: key, Value: v, Message: "must be an integer"}
	}
	if i <= 0 {
		return nil, &core.ValidationError{Field: key, Value: v, Message: "must be positive"}
	}
	return &i, nil
}
