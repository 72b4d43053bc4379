// ABOUTME: Canonicalizes locale inputs: country slugs to ISO-3, language codes to ISO-2.
// ABOUTME: Also derives human city names and filesystem-safe path segments.

package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Codes holds the lookup tables used to canonicalize country and language codes.
// Keys are lower-case.
type Codes struct {
	Countries map[string]string
	Languages map[string]string
}

// CountryToISO3 maps a country slug to its ISO 3166-1 alpha-3 code. Unknown
// slugs fall back to their first three characters, upper-cased.
func (c Codes) CountryToISO3(slug string) string {
	if code, ok := c.Countries[strings.ToLower(slug)]; ok {
		return code
	}
	return firstRunes(strings.ToUpper(slug), 3)
}

// LanguageToISO2 maps a language code to its ISO 639-1 code. Unknown codes fall
// back to their first two characters, lower-cased.
func (c Codes) LanguageToISO2(code string) string {
	lower := strings.ToLower(code)
	if iso, ok := c.Languages[lower]; ok {
		return iso
	}
	return firstRunes(lower, 2)
}

var punctuation = strings.NewReplacer("-", " ", ".", " ", "/", " ")

// DisplayName derives a readable city name from a slug such as "paris_france":
// the part before the first underscore, punctuation turned into spaces, title-cased.
func DisplayName(id string) string {
	name, _, _ := strings.Cut(id, "_")
	name = punctuation.Replace(name)
	return cases.Title(language.Und).String(name)
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Sanitize makes s safe to use as a single path segment.
func Sanitize(s string) string {
	return unsafePathChars.ReplaceAllString(strings.TrimSpace(s), "_")
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
