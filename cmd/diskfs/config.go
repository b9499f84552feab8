package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envVarPrefix = "DISKFS"

// Config locates the volume image. Values come from an optional yaml
// file (DISKFS_CONFIG_FILE) overridden by DISKFS_* environment
// variables and finally by command-line flags.
type Config struct {
	Image   string `envconfig:"DISKFS_IMAGE"   yaml:"image"`
	Sectors int    `envconfig:"DISKFS_SECTORS" yaml:"sectors"`
}

func LoadConfig() (*Config, error) {
	config := Config{Image: "diskfs.img", Sectors: 4096}

	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf(
				"loading config file `%s`: %w",
				configFile,
				err,
			)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf(
				"parsing config file `%s`: %w",
				configFile,
				err,
			)
		}
	}

	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	return &config, nil
}
