// ABOUTME: Turns raw generated contact items into validated, canonical records.
// ABOUTME: Overwrites model-echoed codes, drops unusable rows, dedupes and trims.

package validate

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/contact"
	"github.com/2389/partnergen/internal/prompt"
)

// Constraints are the canonical values every record for a pair must carry.
type Constraints struct {
	Country  string
	Language string
	City     string
	Type     contact.PartnerType
}

// Normalize converts raw items into at most target records. Items that are not
// objects, have an empty name, or have neither email nor instagram are dropped.
// Country, language, city and type always come from c. The first record per
// dedup key wins and input order is preserved.
func Normalize(raw []any, target int, c Constraints) []contact.Record {
	records := make([]contact.Record, 0, len(raw))
	for _, item := range raw {
		if r, ok := normalizeItem(item, c); ok {
			records = append(records, r)
		}
	}
	records = contact.Dedupe(records)
	if target >= 0 && len(records) > target {
		records = records[:target]
	}
	return records
}

func normalizeItem(item any, c Constraints) (contact.Record, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return contact.Record{}, false
	}
	r := contact.Record{
		Name:         field(obj, "name"),
		Email:        field(obj, "email"),
		Instagram:    field(obj, "instagram"),
		Phone:        field(obj, "phone"),
		Organization: field(obj, "organization"),
		Notes:        field(obj, "notes"),
		Country:      c.Country,
		Language:     c.Language,
		City:         c.City,
		Type:         c.Type,
	}
	if r.Name == "" {
		return contact.Record{}, false
	}
	if r.Email == "" && r.Instagram == "" {
		return contact.Record{}, false
	}
	return r, true
}

// field returns obj[key] as a trimmed string. Numbers and booleans are rendered,
// anything else reads as absent.
func field(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Report summarizes one Validate call.
type Report struct {
	Raw        int
	Kept       int
	Dropped    int
	SchemaMiss int
}

// Validator wraps Normalize with schema drift reporting.
type Validator struct {
	logger *zap.Logger
	schema *gojsonschema.Schema
}

// New creates a Validator. A nil logger disables logging.
func New(logger *zap.Logger) (*Validator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := prompt.CompiledItemSchema()
	if err != nil {
		return nil, err
	}
	return &Validator{logger: logger, schema: schema}, nil
}

// Validate normalizes raw and reports how many items broke the item schema and
// how many were dropped. It never fails.
func (v *Validator) Validate(raw []any, target int, c Constraints) ([]contact.Record, Report) {
	records := Normalize(raw, target, c)
	report := Report{Raw: len(raw), Kept: len(records), Dropped: len(raw) - len(records)}

	for _, item := range raw {
		res, err := v.schema.Validate(gojsonschema.NewGoLoader(item))
		if err != nil || !res.Valid() {
			report.SchemaMiss++
		}
	}

	if report.SchemaMiss > 0 || report.Dropped > 0 {
		v.logger.Debug("normalized generated batch",
			zap.String("city", c.City),
			zap.String("type", string(c.Type)),
			zap.Int("raw", report.Raw),
			zap.Int("kept", report.Kept),
			zap.Int("dropped", report.Dropped),
			zap.Int("schema_miss", report.SchemaMiss))
	}
	return records, report
}
