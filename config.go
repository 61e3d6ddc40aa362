package combine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOutputName is the node name used when none is configured.
const DefaultOutputName = "Combined Mesh"

// Settings is the on-disk configuration of the tool. Fields left out of
// the file keep their defaults.
type Settings struct {
	Output     string      `yaml:"output"`
	LightmapUV bool        `yaml:"lightmap_uv"`
	Atlas      AtlasConfig `yaml:"atlas"`
}

func DefaultSettings() Settings {
	return Settings{
		Output:     DefaultOutputName,
		LightmapUV: true,
		Atlas:      DefaultAtlasConfig(),
	}
}

// LoadSettings reads a YAML settings file over the defaults. An empty
// path or a missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// Options converts the settings into combine options.
func (s Settings) Options() Options {
	return Options{
		Name:       s.Output,
		LightmapUV: s.LightmapUV,
		Atlas:      s.Atlas,
	}
}
