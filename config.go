package thumbnailer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the default config path.
const ConfigPathEnv = "CONFIG_PATH"

// ConfigPath returns path, or the value of CONFIG_PATH when path is empty.
func ConfigPath(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(ConfigPathEnv)
}

// LoadConfig reads YAML options from path on top of the defaults. Keys
// missing from the file keep their default value.
func LoadConfig(path string) (*Options, error) {
	options := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, options); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return options, nil
}
