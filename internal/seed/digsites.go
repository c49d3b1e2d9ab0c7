package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed digsites.yaml
var digSitesYAML []byte

// DigSite is a real excavation site used as fixture data for seeded posts.
type DigSite struct {
	Name      string  `yaml:"name"`
	Location  string  `yaml:"location"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Period    string  `yaml:"period"`
}

type digSiteFile struct {
	Sites []DigSite `yaml:"sites"`
}

// LoadDigSites parses the embedded dig-site fixture.
func LoadDigSites() ([]DigSite, error) {
	var f digSiteFile
	if err := yaml.Unmarshal(digSitesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse dig sites fixture: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, fmt.Errorf("dig sites fixture is empty")
	}
	return f.Sites, nil
}
