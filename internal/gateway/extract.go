// ABOUTME: Ordered extractor chain that turns a service response into a JSON document.
// ABOUTME: Includes fence stripping and the truncated-array repair heuristic.

package gateway

import (
	"encoding/json"
	"errors"
	"strings"
)

// Extractor pulls a decoded document out of one response shape.
type Extractor interface {
	Name() string
	CanExtract(resp *Response) bool
	Extract(resp *Response) (Extracted, error)
}

// Extracted is the decoded document plus how it was obtained.
type Extracted struct {
	Doc      any
	Repaired bool
}

// DefaultExtractors returns the chain in priority order: a pre-parsed response
// object, a parsed field on the first message, then the first message's raw text.
func DefaultExtractors() []Extractor {
	return []Extractor{ParsedResponse{}, ParsedMessage{}, RawText{}}
}

// ParsedResponse uses an object the service already decoded at response level.
type ParsedResponse struct{}

func (ParsedResponse) Name() string { return "parsed_response" }

func (ParsedResponse) CanExtract(resp *Response) bool {
	return resp != nil && resp.Parsed != nil
}

func (ParsedResponse) Extract(resp *Response) (Extracted, error) {
	return Extracted{Doc: resp.Parsed}, nil
}

// ParsedMessage uses an object decoded on the first message.
type ParsedMessage struct{}

func (ParsedMessage) Name() string { return "parsed_message" }

func (ParsedMessage) CanExtract(resp *Response) bool {
	m := resp.first()
	return m != nil && m.Parsed != nil
}

func (ParsedMessage) Extract(resp *Response) (Extracted, error) {
	return Extracted{Doc: resp.first().Parsed}, nil
}

// RawText decodes the first message's text as JSON, repairing truncation first.
type RawText struct{}

func (RawText) Name() string { return "raw_text" }

func (RawText) CanExtract(resp *Response) bool {
	m := resp.first()
	return m != nil && strings.TrimSpace(m.Content) != ""
}

func (RawText) Extract(resp *Response) (Extracted, error) {
	text := StripCodeFence(resp.first().Content)
	text, repaired := RepairTruncated(text)

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return Extracted{}, &GatewayError{
			Op:      OpParse,
			Err:     err,
			Length:  len(text),
			Snippet: snippetAround(text, errorOffset(err)),
		}
	}
	return Extracted{Doc: doc, Repaired: repaired}, nil
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RepairTruncated closes a contacts payload that was cut off mid-stream. Text
// that already ends in "}" is returned unchanged. Otherwise the text is cut
// after the last complete `"}` token, or at the start of the dangling record
// (",{") following it, and "]}" is appended to close the array and the object.
// The cut keeps every complete record before the dangling one.
// The bool reports whether the text was changed.
func RepairTruncated(s string) (string, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" || strings.HasSuffix(cleaned, "}") {
		return cleaned, false
	}

	last := strings.LastIndex(cleaned, `"}`)
	if last < 0 {
		return cleaned, false
	}
	end := last + len(`"}`)

	if next := strings.LastIndex(cleaned[end:], ",{"); next >= 0 {
		return cleaned[:end+next] + "]}", true
	}
	return cleaned[:end] + "]}", true
}

func errorOffset(err error) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return -1
}

const snippetRadius = 50

func snippetAround(s string, offset int64) string {
	if offset < 0 || s == "" {
		return ""
	}
	pos := int(offset)
	start := max(0, pos-snippetRadius)
	end := min(len(s), pos+snippetRadius)
	if start >= end {
		return ""
	}
	return strings.ToValidUTF8(s[start:end], "")
}
