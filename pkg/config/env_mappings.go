package config

import (
	"reflect"
	"sync"
)

// EnvMapping represents a mapping between an environment variable and a
// config path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var (
	cachedMappings []EnvMapping
	mappingsOnce   sync.Once
)

// GenerateEnvMappings generates environment variable mappings from config
// struct tags. Every Config field carries an explicit `env` tag whose name is
// the variable consumed in deployment manifests, so no name derivation is
// needed.
func GenerateEnvMappings() []EnvMapping {
	mappingsOnce.Do(func() {
		cachedMappings = extractMappings(reflect.TypeOf(Config{}), "")
	})
	return cachedMappings
}

// extractMappings recursively extracts env mappings from struct fields.
func extractMappings(t reflect.Type, prefix string) []EnvMapping {
	var mappings []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}

		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}

		if field.Type.Kind() == reflect.Struct {
			mappings = append(mappings, extractMappings(field.Type, configPath)...)
			continue
		}

		envTag := field.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		mappings = append(mappings, EnvMapping{
			EnvVar:     envTag,
			ConfigPath: configPath,
		})
	}
	return mappings
}
