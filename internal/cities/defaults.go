// ABOUTME: Built-in world city table used when no cities file is given.
// ABOUTME: Also holds the country-to-language inference table.

package cities

import "strings"

// Default returns the built-in city list.
func Default() []City {
	out := make([]City, 0, len(defaultCities))
	for _, d := range defaultCities {
		out = append(out, City{
			ID:      d.id,
			Name:    d.name,
			Country: d.country,
			Map:     MapInfo{Language: LanguageForCountry(d.country)},
		})
	}
	return out
}

// LanguageForCountry infers the main outreach language for a country slug,
// defaulting to English.
func LanguageForCountry(country string) string {
	if lang, ok := countryLanguages[strings.ToLower(strings.TrimSpace(country))]; ok {
		return lang
	}
	return "en"
}

var countryLanguages = map[string]string{
	"mexico":      "es",
	"spain":       "es",
	"argentina":   "es",
	"colombia":    "es",
	"peru":        "es",
	"chile":       "es",
	"brazil":      "pt",
	"france":      "fr",
	"germany":     "de",
	"italy":       "it",
	"russia":      "ru",
	"turkey":      "tr",
	"egypt":       "ar",
	"india":       "hi",
	"indonesia":   "id",
	"thailand":    "th",
	"japan":       "ja",
	"south_korea": "ko",
	"china":       "zh",
	"iran":        "fa",
	"pakistan":    "ur",
	"philippines": "tl",
}

type defaultCity struct {
	id      string
	name    string
	country string
}

var defaultCities = []defaultCity{
	{"new_york_usa", "New York", "usa"},
	{"los_angeles_usa", "Los Angeles", "usa"},
	{"mexico_city_mexico", "Mexico City", "mexico"},
	{"sao_paulo_brazil", "São Paulo", "brazil"},
	{"buenos_aires_argentina", "Buenos Aires", "argentina"},
	{"london_england", "London", "england"},
	{"paris_france", "Paris", "france"},
	{"berlin_germany", "Berlin", "germany"},
	{"madrid_spain", "Madrid", "spain"},
	{"rome_italy", "Rome", "italy"},
	{"moscow_russia", "Moscow", "russia"},
	{"istanbul_turkey", "Istanbul", "turkey"},
	{"cairo_egypt", "Cairo", "egypt"},
	{"johannesburg_south_africa", "Johannesburg", "south_africa"},
	{"nairobi_kenya", "Nairobi", "kenya"},
	{"lagos_nigeria", "Lagos", "nigeria"},
	{"kinshasa_democratic_republic_of_the_congo", "Kinshasa", "democratic_republic_of_the_congo"},
	{"dubai_united_arab_emirates", "Dubai", "united_arab_emirates"},
	{"mumbai_india", "Mumbai", "india"},
	{"delhi_india", "Delhi", "india"},
	{"bangalore_india", "Bangalore", "india"},
	{"jakarta_indonesia", "Jakarta", "indonesia"},
	{"bangkok_thailand", "Bangkok", "thailand"},
	{"manila_philippines", "Manila", "philippines"},
	{"tokyo_japan", "Tokyo", "japan"},
	{"seoul_south_korea", "Seoul", "south_korea"},
	{"beijing_china", "Beijing", "china"},
	{"shanghai_china", "Shanghai", "china"},
	{"hong_kong_china", "Hong Kong", "china"},
	{"sydney_australia", "Sydney", "australia"},
	{"melbourne_australia", "Melbourne", "australia"},
	{"toronto_canada", "Toronto", "canada"},
	{"vancouver_canada", "Vancouver", "canada"},
	{"chicago_usa", "Chicago", "usa"},
	{"san_francisco_usa", "San Francisco", "usa"},
	{"lima_peru", "Lima", "peru"},
	{"bogota_colombia", "Bogotá", "colombia"},
	{"santiago_chile", "Santiago", "chile"},
	{"tehran_iran", "Tehran", "iran"},
	{"karachi_pakistan", "Karachi", "pakistan"},
}
