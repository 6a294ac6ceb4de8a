package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional on-disk configuration.
type FileConfig struct {
	ApiKey string `yaml:"api_key"`
}

// LoadFileConfig reads ~/.cvewatch/config.yaml when present. A
// missing file just means anonymous access.
func LoadFileConfig() (*FileConfig, error) {
	conf := &FileConfig{}

	path, err := configPath()
	if err != nil {
		return conf, nil
	}

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, err
	}

	return conf, nil
}

func configPath() (string, error) {
	if runtime.GOOS == "windows" {
		dir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "cvewatchdata", "config.yaml"), nil
	}

	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".cvewatch", "config.yaml"), nil
}
