// ABOUTME: Contact record shape shared by generation, CSV output, and merge.
// ABOUTME: Defines partner types, the fixed column order, and the dedup key.

package contact

import (
	"fmt"
	"strings"
)

// PartnerType is one of the fixed outreach categories.
type PartnerType string

const (
	Influencer PartnerType = "influencer"
	Podcaster  PartnerType = "podcaster"
	Journalist PartnerType = "journalist"
	Activist   PartnerType = "activist"
	NGO        PartnerType = "ngo"
	Other      PartnerType = "other"
)

// PartnerTypes lists every partner type in processing order.
var PartnerTypes = []PartnerType{Influencer, Podcaster, Journalist, Activist, NGO, Other}

// Header is the fixed CSV header for per-pair and merged files.
var Header = []string{"name", "email", "country", "language", "city", "instagram", "phone", "organization", "type", "notes"}

// ParsePartnerType converts a string to a known PartnerType.
func ParsePartnerType(s string) (PartnerType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range PartnerTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown partner type %q", s)
}

// TypeNames returns the partner types as plain strings, in order.
func TypeNames() []string {
	names := make([]string, len(PartnerTypes))
	for i, t := range PartnerTypes {
		names[i] = string(t)
	}
	return names
}

// Record is one validated contact row. Optional fields are empty when absent.
type Record struct {
	Name         string
	Email        string
	Country      string
	Language     string
	City         string
	Instagram    string
	Phone        string
	Organization string
	Type         PartnerType
	Notes        string
}

// Row renders the record in Header order.
func (r Record) Row() []string {
	return []string{
		r.Name,
		r.Email,
		r.Country,
		r.Language,
		r.City,
		r.Instagram,
		r.Phone,
		r.Organization,
		string(r.Type),
		r.Notes,
	}
}

// Key returns the record's dedup key.
func (r Record) Key() (string, bool) {
	return DedupKey(r.Email, r.Instagram)
}

// FromRow maps a header-keyed row back into a Record. Unknown columns are ignored
// and missing ones stay empty.
func FromRow(row map[string]string) Record {
	return Record{
		Name:         row["name"],
		Email:        row["email"],
		Country:      row["country"],
		Language:     row["language"],
		City:         row["city"],
		Instagram:    row["instagram"],
		Phone:        row["phone"],
		Organization: row["organization"],
		Type:         PartnerType(row["type"]),
		Notes:        row["notes"],
	}
}

// DedupKey derives the identity of a contact: the lower-cased email when present,
// otherwise "ig:" plus the lower-cased Instagram handle. ok is false when neither
// channel is present.
func DedupKey(email, instagram string) (key string, ok bool) {
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		return e, true
	}
	if ig := strings.ToLower(strings.TrimSpace(instagram)); ig != "" {
		return "ig:" + ig, true
	}
	return "", false
}

// Dedupe keeps the first record for each key, preserving order. Records without
// a key are dropped.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key, ok := r.Key()
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
