package cmd

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional ambient configuration read from tomlfmt.yaml in
// the current directory, mirroring the teacher CLI's sqlcode.yaml.
type Config struct {
	Indent  int      `yaml:"indent"`
	Globs   []string `yaml:"globs"`
}

// LoadConfig reads tomlfmt.yaml if present, returning the defaults
// (indent 4, no globs) if it is absent.
func LoadConfig() (Config, error) {
	result := Config{Indent: 4}

	if _, err := os.Stat("tomlfmt.yaml"); os.IsNotExist(err) {
		return result, nil
	}

	data, err := os.ReadFile("tomlfmt.yaml")
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &result); err != nil {
		return Config{}, err
	}
	if result.Indent < 0 {
		return Config{}, errors.New("tomlfmt.yaml: indent cannot be negative")
	}
	return result, nil
}
