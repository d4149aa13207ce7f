// Package config loads masari settings from ~/.masari/config.yaml, with
// MASARI_* environment overrides and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: speech.enabled is read from
// MASARI_SPEECH_ENABLED.
const EnvPrefix = "MASARI"

// Config is the full settings tree.
type Config struct {
	Language string         `mapstructure:"language" yaml:"language"`
	DB       string         `mapstructure:"db" yaml:"db"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Speech   SpeechConfig   `mapstructure:"speech" yaml:"speech"`
	Answerer AnswererConfig `mapstructure:"answerer" yaml:"answerer"`
	Location LocationConfig `mapstructure:"location" yaml:"location"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type SpeechConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

// AnswererConfig selects the question backend. Provider is "anthropic" or
// "gemini"; Models are tried in order.
type AnswererConfig struct {
	Provider string   `mapstructure:"provider" yaml:"provider"`
	BaseURL  string   `mapstructure:"base_url" yaml:"base_url"`
	Models   []string `mapstructure:"models" yaml:"models"`
}

// ModelList returns Models, or the provider's defaults when none are set.
func (a AnswererConfig) ModelList() []string {
	if len(a.Models) > 0 {
		return a.Models
	}
	if a.Provider == "gemini" {
		return []string{"gemini-2.5-flash", "gemini-2.0-flash"}
	}
	return []string{"claude-sonnet-4-5", "claude-haiku-4-5"}
}

// LocationConfig is the fixed position reported for "where am I" and the
// name it is saved under. Lat and Lng of zero mean no position is
// configured.
type LocationConfig struct {
	Name string  `mapstructure:"name" yaml:"name"`
	Lat  float64 `mapstructure:"lat" yaml:"lat"`
	Lng  float64 `mapstructure:"lng" yaml:"lng"`
}

// HasPosition reports whether coordinates were configured.
func (l LocationConfig) HasPosition() bool {
	return l.Lat != 0 || l.Lng != 0
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindFloat
	kindList
)

// keys lists every settable key.
var keys = map[string]kind{
	"language":          kindString,
	"db":                kindString,
	"server.addr":       kindString,
	"speech.enabled":    kindBool,
	"speech.command":    kindString,
	"speech.args":       kindList,
	"answerer.provider": kindString,
	"answerer.base_url": kindString,
	"answerer.models":   kindList,
	"location.name":     kindString,
	"location.lat":      kindFloat,
	"location.lng":      kindFloat,
}

// Keys returns the known keys, sorted.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Dir is ~/.masari.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".masari")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Language: "ar",
		DB:       filepath.Join(Dir(), "masari.db"),
		Server:   ServerConfig{Addr: ":8080"},
		Speech: SpeechConfig{
			Command: "espeak-ng",
			Args:    []string{"-v", "{voice}", "{text}"},
		},
		Answerer: AnswererConfig{Provider: "anthropic"},
	}
}

func newViper(path string) *viper.Viper {
	def := Default()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("language", def.Language)
	v.SetDefault("db", def.DB)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("speech.enabled", def.Speech.Enabled)
	v.SetDefault("speech.command", def.Speech.Command)
	v.SetDefault("speech.args", def.Speech.Args)
	v.SetDefault("answerer.provider", def.Answerer.Provider)
	v.SetDefault("answerer.base_url", def.Answerer.BaseURL)
	v.SetDefault("answerer.models", def.Answerer.Models)
	v.SetDefault("location.name", def.Location.Name)
	v.SetDefault("location.lat", def.Location.Lat)
	v.SetDefault("location.lng", def.Location.Lng)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readIn reads path into v. A missing file leaves the defaults in place.
func readIn(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load reads the config at path. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	v := newViper(path)
	if err := readIn(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of masari cannot run with.
func (c *Config) Validate() error {
	switch c.Language {
	case "ar", "es":
	default:
		return fmt.Errorf("language must be ar or es, got %q", c.Language)
	}
	switch c.Answerer.Provider {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("answerer.provider must be anthropic or gemini, got %q", c.Answerer.Provider)
	}
	if c.DB == "" {
		return fmt.Errorf("db path is empty")
	}
	return nil
}

// Get returns the effective value of key, after file and environment.
func Get(path, key string) (any, error) {
	if _, ok := keys[key]; !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	if path == "" {
		path = DefaultPath()
	}
	v := newViper(path)
	if err := readIn(v, path); err != nil {
		return nil, err
	}
	return v.Get(key), nil
}

// Set writes key=value into the file at path, creating it if needed.
// Other keys in the file are kept as they are.
func Set(path, key, value string) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if path == "" {
		path = DefaultPath()
	}
	typed, err := parseValue(k, value)
	if err != nil {
		return fmt.Errorf("config key %s: %w", key, err)
	}

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read config %s: %w", path, err)
	}

	setPath(doc, strings.Split(key, "."), typed)
	return write(path, doc)
}

// Save writes the whole of c to path.
func Save(path string, c *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	return write(path, c)
}

func write(path string, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func setPath(doc map[string]any, parts []string, value any) {
	for _, p := range parts[:len(parts)-1] {
		child, ok := doc[p].(map[string]any)
		if !ok {
			child = map[string]any{}
			doc[p] = child
		}
		doc = child
	}
	doc[parts[len(parts)-1]] = value
}

func parseValue(k kind, s string) (any, error) {
	switch k {
	case kindBool:
		return strconv.ParseBool(s)
	case kindFloat:
		return strconv.ParseFloat(s, 64)
	case kindList:
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	return s, nil
}
