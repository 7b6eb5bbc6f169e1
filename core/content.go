package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentItem is one element of a multi-part Content. Concrete item types
// implement the unexported isContentItem marker enabling a closed set.
type ContentItem interface{ isContentItem() }

// TextItem is a plain text segment.
type TextItem string

// isContentItem implements the ContentItem interface for TextItem.
func (TextItem) isContentItem() {}

// DataItem is a structured key/value segment (multimodal payloads, image refs, ...).
type DataItem map[string]any

// isContentItem implements the ContentItem interface for DataItem.
func (DataItem) isContentItem() {}

// Content is either a plain text string or an ordered sequence of items. The
// zero value is empty text.
type Content struct {
	text  string
	items []ContentItem
	multi bool
}

// Text creates plain text content.
func Text(s string) Content { return Content{text: s} }

// Parts creates multi-part content from the given items (order preserved).
func Parts(items ...ContentItem) Content {
	cp := make([]ContentItem, len(items))
	copy(cp, items)
	return Content{items: cp, multi: true}
}

// IsMultipart reports whether the content is an item sequence rather than text.
func (c Content) IsMultipart() bool { return c.multi }

// Items returns a copy of the item sequence. Plain text content yields a
// single TextItem.
func (c Content) Items() []ContentItem {
	if !c.multi {
		return []ContentItem{TextItem(c.text)}
	}
	cp := make([]ContentItem, len(c.items))
	copy(cp, c.items)
	return cp
}

// String concatenates all text segments. Data items are skipped.
func (c Content) String() string {
	if !c.multi {
		return c.text
	}
	var b strings.Builder
	for _, it := range c.items {
		if t, ok := it.(TextItem); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Value returns the plain serializable form: a string, or a []any of strings
// and map[string]any records.
func (c Content) Value() any {
	if !c.multi {
		return c.text
	}
	out := make([]any, 0, len(c.items))
	for _, it := range c.items {
		switch v := it.(type) {
		case TextItem:
			out = append(out, string(v))
		case DataItem:
			out = append(out, map[string]any(v))
		}
	}
	return out
}

// ContentFromValue converts a plain value (as produced by Value or a JSON
// decoder) back into Content.
func ContentFromValue(v any) (Content, error) {
	switch val := v.(type) {
	case nil:
		return Text(""), nil
	case string:
		return Text(val), nil
	case Content:
		return val, nil
	case []any:
		items := make([]ContentItem, 0, len(val))
		for i, raw := range val {
			switch it := raw.(type) {
			case string:
				items = append(items, TextItem(it))
			case map[string]any:
				items = append(items, DataItem(it))
			default:
				return Content{}, &ValidationError{
					Field:   fmt.Sprintf("content[%d]", i),
					Value:   raw,
					Message: fmt.Sprintf("expected string or record, got %T", raw),
				}
			}
		}
		return Parts(items...), nil
	default:
		return Content{}, &ValidationError{
			Field:   "content",
			Value:   v,
			Message: fmt.Sprintf("expected string or list, got %T", v),
		}
	}
}

// MarshalJSON encodes the content as a string or an array.
func (c Content) MarshalJSON() ([]byte, error) { return json.Marshal(c.Value()) }

// UnmarshalJSON decodes either a string or an array of strings / objects.
func (c *Content) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ContentFromValue(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
