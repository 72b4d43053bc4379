// ABOUTME: Built-in country and language lookup tables.
// ABOUTME: Injected through Codes so tests can substitute small synthetic tables.

package normalize

// DefaultCodes returns a fresh copy of the built-in lookup tables.
func DefaultCodes() Codes {
	countries := make(map[string]string, len(iso3))
	for k, v := range iso3 {
		countries[k] = v
	}
	languages := make(map[string]string, len(iso2))
	for k, v := range iso2 {
		languages[k] = v
	}
	return Codes{Countries: countries, Languages: languages}
}

var iso3 = map[string]string{
	"usa":                              "USA",
	"canada":                           "CAN",
	"mexico":                           "MEX",
	"brazil":                           "BRA",
	"argentina":                        "ARG",
	"peru":                             "PER",
	"colombia":                         "COL",
	"chile":                            "CHL",
	"england":                          "GBR",
	"france":                           "FRA",
	"germany":                          "DEU",
	"spain":                            "ESP",
	"italy":                            "ITA",
	"russia":                           "RUS",
	"turkey":                           "TUR",
	"egypt":                            "EGY",
	"south_africa":                     "ZAF",
	"kenya":                            "KEN",
	"nigeria":                          "NGA",
	"democratic_republic_of_the_congo": "COD",
	"united_arab_emirates":             "ARE",
	"iran":                             "IRN",
	"pakistan":                         "PAK",
	"india":                            "IND",
	"indonesia":                        "IDN",
	"thailand":                         "THA",
	"philippines":                      "PHL",
	"japan":                            "JPN",
	"south_korea":                      "KOR",
	"china":                            "CHN",
	"australia":                        "AUS",
}

// "ph" is a common mislabel for Filipino; it maps to Tagalog.
var iso2 = map[string]string{
	"en": "en",
	"es": "es",
	"pt": "pt",
	"fr": "fr",
	"de": "de",
	"it": "it",
	"ru": "ru",
	"tr": "tr",
	"ar": "ar",
	"sw": "sw",
	"hi": "hi",
	"id": "id",
	"th": "th",
	"ja": "ja",
	"ko": "ko",
	"zh": "zh",
	"ph": "tl",
	"fa": "fa",
	"ur": "ur",
	"tl": "tl",
}
