// Package config loads typed configuration from the environment, with an
// optional .env file layered underneath.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFileFlag string
	flagSetup   sync.Once
)

// MustNew parses a config struct from the environment and panics on failure.
// Intended for wiring in main, where a bad config should stop the process.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(fmt.Errorf("config %s: %w", prefix, err))
	}
	return conf
}

// New fills T via envconfig under the given prefix. Before parsing, it
// exports variables from an env file into the process environment: the
// -env flag names one explicitly, otherwise a .env in the working
// directory is used when present.
func New[T any](prefix string) (*T, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func loadEnvFile() error {
	flagSetup.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFileFlag, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})

	if path := strings.TrimSpace(envFileFlag); path != "" {
		if err := exportSettings(path); err != nil {
			return fmt.Errorf("env file %s: %w", path, err)
		}
		return nil
	}

	info, err := os.Stat(defaultEnvFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}
	if err := exportSettings(defaultEnvFile); err != nil {
		return fmt.Errorf("env file %s: %w", defaultEnvFile, err)
	}
	return nil
}

// exportSettings copies every key from the file into the process
// environment so envconfig sees file values and real environment
// variables through the same lookup.
func exportSettings(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for key, value := range v.AllSettings() {
		if err := os.Setenv(strings.ToUpper(key), fmt.Sprint(value)); err != nil {
			return err
		}
	}
	return nil
}
