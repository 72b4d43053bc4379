// ABOUTME: Static name and organization pools the mock service fabricates contacts from.
// ABOUTME: Output is deterministic for a given offset so repeated calls yield fresh rows.

package seed

import (
	"fmt"
	"strings"
)

// Contact is one fabricated contact. Empty optional fields are emitted as null.
type Contact struct {
	Name         string
	Email        string
	Instagram    string
	Phone        string
	Organization string
	Notes        string
}

var firstNames = []string{
	"Alice", "Bruno", "Chiara", "Dmitri", "Elif", "Farah", "Gustavo", "Hana",
	"Ines", "Jonas", "Kwame", "Lucia", "Mateo", "Nadia", "Oskar", "Priya",
	"Quentin", "Rosa", "Samir", "Tove", "Uma", "Viktor", "Wen", "Yara", "Zeno",
}

var lastNames = []string{
	"Almeida", "Becker", "Costa", "Dubois", "Eriksen", "Fischer", "Garcia",
	"Haddad", "Ivanova", "Jensen", "Kowalski", "Lindqvist", "Moreau", "Nakamura",
	"Okafor", "Petrov", "Rossi", "Santos", "Tanaka", "Usman", "Varga", "Weber",
}

var organizations = map[string][]string{
	"influencer": {"Green Living Daily", "Zero Waste Diaries", "Slow Travel Stories", "Urban Garden Club"},
	"podcaster":  {"Climate Conversations", "The Peace Dividend", "Wild Places Podcast", "Geo Talk Weekly"},
	"journalist": {"The Morning Ledger", "Coastal Chronicle", "Metro Environment Desk", "Global Affairs Review"},
	"activist":   {"Fridays For Future", "Clean Air Coalition", "Rivers Alive", "Peace Now Collective"},
	"ngo":        {"Friends of the Earth", "Red Cross Chapter", "WWF Regional Office", "Ocean Care Foundation"},
	"other":      {"City Botanical Garden", "University Climate Lab", "Museum of Natural History", "Public Library"},
}

var notes = []string{
	"Active on local climate marches",
	"Covers regional environment policy",
	"Hosts monthly community clean-ups",
	"",
	"Runs workshops on sustainable living",
}

// Contacts fabricates count contacts for a city and partner type, starting at
// offset in the pool sequence. Every third contact has no public email and
// relies on Instagram alone.
func Contacts(city, partnerType string, offset, count int) []Contact {
	orgs, ok := organizations[partnerType]
	if !ok {
		orgs = organizations["other"]
	}
	slug := handle(city)

	result := make([]Contact, count)
	for i := 0; i < count; i++ {
		n := offset + i
		first := firstNames[n%len(firstNames)]
		last := lastNames[(n/len(firstNames))%len(lastNames)]
		name := first + " " + last
		round := n / (len(firstNames) * len(lastNames))
		if round > 0 {
			// Add suffix to make unique
			name = fmt.Sprintf("%s %d", name, round+1)
		}

		local := handle(name)
		c := Contact{
			Name:         name,
			Instagram:    "@" + local + "_" + slug,
			Organization: orgs[n%len(orgs)],
			Notes:        notes[n%len(notes)],
		}
		if n%3 != 2 {
			c.Email = fmt.Sprintf("%s.%s@%s.example.org", local, partnerType, slug)
		}
		if n%4 == 0 {
			c.Phone = fmt.Sprintf("+1-555-%04d", n%10000)
		}
		result[i] = c
	}
	return result
}

func handle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
