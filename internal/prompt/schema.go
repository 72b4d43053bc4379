// ABOUTME: JSON Schema for the structured contacts payload.
// ABOUTME: Sent to the service as the output contract and compiled for local checks.

package prompt

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/2389/partnergen/internal/contact"
)

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

// ItemSchema describes one generated contact.
func ItemSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":         map[string]any{"type": "string"},
			"email":        nullableString(),
			"country":      map[string]any{"type": "string"},
			"language":     map[string]any{"type": "string"},
			"city":         map[string]any{"type": "string"},
			"instagram":    nullableString(),
			"phone":        nullableString(),
			"organization": nullableString(),
			"type":         map[string]any{"type": "string", "enum": contact.TypeNames()},
			"notes":        nullableString(),
		},
		"required": []string{"name", "country", "language", "city", "type"},
		"anyOf": []any{
			map[string]any{"required": []string{"email"}},
			map[string]any{"required": []string{"instagram"}},
		},
	}
}

// ContactsSchema returns the full payload schema asking for at least minItems contacts.
func ContactsSchema(minItems int) (json.RawMessage, error) {
	contacts := map[string]any{
		"type":  "array",
		"items": ItemSchema(),
	}
	if minItems > 0 {
		contacts["minItems"] = minItems
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"contacts": contacts},
		"required":             []string{"contacts"},
		"additionalProperties": false,
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal contacts schema: %w", err)
	}
	return b, nil
}

var (
	itemSchemaOnce sync.Once
	itemSchema     *gojsonschema.Schema
	itemSchemaErr  error
)

// CompiledItemSchema returns the item schema compiled for validation.
func CompiledItemSchema() (*gojsonschema.Schema, error) {
	itemSchemaOnce.Do(func() {
		itemSchema, itemSchemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(ItemSchema()))
	})
	return itemSchema, itemSchemaErr
}
