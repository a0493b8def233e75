package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/videoquest/videoquest/internal/ledger"
	"github.com/videoquest/videoquest/internal/model"
	"github.com/videoquest/videoquest/internal/store"
)

// FileName is the config file name inside a data directory.
const FileName = "videoquest.yaml"

// Config represents the top-level videoquest.yaml configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Goal     GoalConfig     `yaml:"goal"`
	Currency CurrencyConfig `yaml:"currency"`
	Clients  []ClientPreset `yaml:"clients,omitempty"`
	Levels   []model.Level  `yaml:"levels,omitempty"`
	Coach    CoachConfig    `yaml:"coach"`
	Git      GitConfig      `yaml:"git"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend store.Backend `yaml:"backend"`
	Path    string        `yaml:"path,omitempty"` // relative to the data directory
}

// GoalConfig controls goal defaults and how progress is measured.
type GoalConfig struct {
	Default int64  `yaml:"default"`
	Basis   string `yaml:"basis"` // "pending" or "score"
}

// CurrencyConfig is display-only; amounts carry no currency.
type CurrencyConfig struct {
	Symbol string `yaml:"symbol"`
	Code   string `yaml:"code"`
}

// ClientPreset is a regular client with default prices per job kind.
type ClientPreset struct {
	Name       string          `yaml:"name"`
	ShortPrice decimal.Decimal `yaml:"short_price"`
	LongPrice  decimal.Decimal `yaml:"long_price"`
}

// CoachConfig selects the model behind encouragement messages. An empty
// provider disables it.
type CoachConfig struct {
	Provider   string        `yaml:"provider"` // "", "ollama", "openai", "anthropic"
	Model      string        `yaml:"model,omitempty"`
	OllamaHost string        `yaml:"ollama_host,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls diagnostics output.
type LogConfig struct {
	File  string `yaml:"file,omitempty"` // relative to the data directory
	Level string `yaml:"level"`
}

// Coach providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Load reads a videoquest.yaml file from disk. Sections missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	cfg.Clients = nil
	cfg.Levels = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Levels) == 0 {
		cfg.Levels = ledger.DefaultLevels()
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: store.BackendFile,
			Path:    "data",
		},
		Goal: GoalConfig{
			Default: ledger.DefaultGoal,
			Basis:   string(ledger.BasisPending),
		},
		Currency: CurrencyConfig{
			Symbol: "$",
			Code:   "MXN",
		},
		Clients: []ClientPreset{
			{Name: "eodrizola", ShortPrice: DefaultShortPrice, LongPrice: DefaultLongPrice},
			{Name: "jdaniel", ShortPrice: DefaultShortPrice, LongPrice: DefaultLongPrice},
		},
		Levels: ledger.DefaultLevels(),
		Coach: CoachConfig{
			Timeout: 20 * time.Second,
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "VideoQuest",
			AuthorEmail: "ledger@videoquest.local",
		},
		Log: LogConfig{
			File:  "logs/videoquest.log",
			Level: "warn",
		},
	}
}

// Basis returns the parsed goal progress basis.
func (c *Config) Basis() ledger.ProgressBasis {
	b, err := ledger.ParseProgressBasis(c.Goal.Basis)
	if err != nil {
		return ledger.BasisPending
	}
	return b
}

// Preset returns the preset client with the given exact name.
func (c *Config) Preset(name string) (ClientPreset, bool) {
	for _, p := range c.Clients {
		if p.Name == name {
			return p, true
		}
	}
	return ClientPreset{}, false
}

// Default prices for clients without a preset.
var (
	DefaultShortPrice = decimal.NewFromInt(400)
	DefaultLongPrice  = decimal.NewFromInt(1300)
)

// PriceFor returns the default amount for a job of kind for client. Custom
// jobs have no default price.
func (c *Config) PriceFor(client string, kind model.JobKind) (decimal.Decimal, bool) {
	short, long := DefaultShortPrice, DefaultLongPrice
	if p, ok := c.Preset(client); ok {
		short, long = p.ShortPrice, p.LongPrice
	}
	switch kind {
	case model.KindShort:
		return short, true
	case model.KindLong:
		return long, true
	default:
		return decimal.Zero, false
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var problems []string

	if !c.Storage.Backend.Valid() {
		problems = append(problems, fmt.Sprintf("invalid storage backend %q: must be file, sqlite or memory", c.Storage.Backend))
	}
	if c.Goal.Default <= 0 {
		problems = append(problems, fmt.Sprintf("invalid default goal %d: must be positive", c.Goal.Default))
	}
	if _, err := ledger.ParseProgressBasis(c.Goal.Basis); err != nil {
		problems = append(problems, err.Error())
	}
	if err := ledger.ValidateLevels(c.Levels); err != nil {
		problems = append(problems, "invalid levels: "+err.Error())
	}

	seen := make(map[string]bool)
	for _, p := range c.Clients {
		if strings.TrimSpace(p.Name) == "" {
			problems = append(problems, "client preset with empty name")
			continue
		}
		if seen[p.Name] {
			problems = append(problems, fmt.Sprintf("duplicate client preset %q", p.Name))
		}
		seen[p.Name] = true
		if p.ShortPrice.IsNegative() || p.LongPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("client preset %q has a negative price", p.Name))
		}
	}

	switch c.Coach.Provider {
	case "", ProviderOllama, ProviderOpenAI, ProviderAnthropic:
	default:
		problems = append(problems, fmt.Sprintf("unknown coach provider %q", c.Coach.Provider))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
