package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "zschema.yaml"
	envPrefix         = "ZSCHEMA_"
)

// config holds CLI defaults. Flags given on the command line win.
type config struct {
	MaxDepth int    `koanf:"max_depth" validate:"gte=0"`
	Workers  int    `koanf:"workers" validate:"gte=1,lte=1024"`
	Color    string `koanf:"color" validate:"oneof=auto always never"`
}

func defaultConfig() config {
	return config{Workers: 4, Color: "auto"}
}

var validate = validator.New()

// loadConfig layers the YAML file at path (or ./zschema.yaml when path is
// empty and the file exists) and ZSCHEMA_* variables over the defaults.
func loadConfig(path string) (config, error) {
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return config{}, err
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// ZSCHEMA_MAX_DEPTH -> max_depth
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// colorEnabled resolves the color setting against w.
func (c config) colorEnabled(w any) bool {
	switch c.Color {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
