// ABOUTME: Builds generation requests for one (city, partner type) pair.
// ABOUTME: Produces the system rules, the per-call user instruction, and the output schema.

package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/2389/partnergen/internal/cities"
	"github.com/2389/partnergen/internal/contact"
)

// SchemaName names the structured-output schema sent to the service.
const SchemaName = "contacts_payload"

// System is the fixed instruction sent with every request.
const System = `You are a precise research assistant for outreach list building.
Return only JSON that matches the provided JSON Schema. No prose.
Rules:
- Do not invent emails. Only include an email if clearly public; otherwise leave it null and prefer Instagram handle.
- Use Instagram handles or official org accounts when available. If neither exists, leave instagram null.
- Avoid duplicates by email or instagram within a single response.
- Prefer accounts relevant to the specified city. Include national partners if they have significant influence or presence in the region.
- For national organizations, include those with local chapters, regional offices, or strong ties to the city.
- Fill 'organization' briefly if the row is a person. Put the show name for podcasters when relevant.
- Focus on contacts who would be interested in climate change, environmental protection, peace initiatives, nature conservation, or geopolitics.
- Include diverse voices from different backgrounds, ages, and sectors within each category.
`

// Request is a complete generation request, independent of any provider.
type Request struct {
	System     string
	User       string
	SchemaName string
	Schema     json.RawMessage
	Target     int
}

// Input describes the pair a request is built for. ISO3 and Lang2 are the
// canonical codes the model must echo back.
type Input struct {
	City     cities.City
	Type     contact.PartnerType
	ISO3     string
	Lang2    string
	CityName string
	Target   int
}

// Build assembles the request for in.
func Build(in Input) (Request, error) {
	schema, err := ContactsSchema(in.Target)
	if err != nil {
		return Request{}, err
	}
	return Request{
		System:     System,
		User:       UserInstruction(in),
		SchemaName: SchemaName,
		Schema:     schema,
		Target:     in.Target,
	}, nil
}

// UserInstruction renders the per-call instruction.
func UserInstruction(in Input) string {
	c := in.City
	lines := []string{
		fmt.Sprintf("Task: Propose at least %d '%s' contacts in or strongly tied to %s.", in.Target, in.Type, in.CityName),
		"They must be plausible relays for WorldWideWaves announcements on climate, peace, nature, or geopolitics.",
		"Return only JSON per the schema. Use the provided codes exactly for 'country' and 'language'.",
		fmt.Sprintf("City metadata: id=%s, country_slug=%s, tz=%s, instagramAccount=%s, hashtag=%s.",
			c.ID, c.Country, orNone(c.TimeZone), orNone(c.InstagramAccount), orNone(c.InstagramHashtag)),
		fmt.Sprintf("Hard constraints: country=%s, language=%s, type=%s.", in.ISO3, in.Lang2, in.Type),
		"If unsure about an email, set email = null and prefer instagram.",
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
