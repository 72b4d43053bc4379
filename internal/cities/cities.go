// ABOUTME: City input records and loading from JSON or YAML cities files.
// ABOUTME: Falls back to language inference when a city omits its language.

package cities

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2389/partnergen/internal/normalize"
)

// City is one target city. Only ID and Country are required.
type City struct {
	ID               string  `json:"id" yaml:"id"`
	Name             string  `json:"name,omitempty" yaml:"name,omitempty"`
	Country          string  `json:"country" yaml:"country"`
	TimeZone         string  `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
	InstagramAccount string  `json:"instagramAccount,omitempty" yaml:"instagramAccount,omitempty"`
	InstagramHashtag string  `json:"instagramHashtag,omitempty" yaml:"instagramHashtag,omitempty"`
	Map              MapInfo `json:"map" yaml:"map"`
}

// MapInfo carries the nested locale metadata of a city.
type MapInfo struct {
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// DisplayName returns the explicit name if set, otherwise one derived from the ID.
func (c City) DisplayName() string {
	if n := strings.TrimSpace(c.Name); n != "" {
		return n
	}
	return normalize.DisplayName(c.ID)
}

// Language returns the city's language code, inferring it from the country when
// the city does not state one.
func (c City) Language() string {
	if l := strings.TrimSpace(c.Map.Language); l != "" {
		return l
	}
	return LanguageForCountry(c.Country)
}

// LoadFile reads a cities file. Files ending in .yaml or .yml are decoded as
// YAML; everything else as JSON. The document must be an array.
func LoadFile(path string) ([]City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities file: %w", err)
	}

	var list []City
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &list)
	default:
		err = json.Unmarshal(data, &list)
	}
	if err != nil {
		return nil, fmt.Errorf("cities file must be an array of city objects: %w", err)
	}

	for i, c := range list {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("city at index %d has no id", i)
		}
	}
	return list, nil
}
