package langcode

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Overrides extends or replaces entries in the built-in tables.
type Overrides struct {
	Aliases map[string]string `yaml:"aliases"`
	Names   map[string]string `yaml:"names"`
}

// LoadOverrides reads alias and name overrides from a YAML file.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, eris.Wrapf(err, "langcode: read overrides %s", path)
	}

	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return Overrides{}, eris.Wrap(err, "langcode: parse overrides")
	}
	return ov, nil
}

// Load builds a Normalizer, applying the overrides file when path is set.
func Load(path string) (*Normalizer, error) {
	if path == "" {
		return New(), nil
	}
	ov, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	return NewWithOverrides(ov)
}
