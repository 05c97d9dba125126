// Package config loads the support daemon configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the SUPPORT_CONFIG environment variable. There is no discovery and no
// environment override of individual values. The only expansion performed
// is ${HOME} in paths.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"xdao.co/support/keys"
	"xdao.co/support/store/registry"
	"xdao.co/support/ticket"
)

const EnvVar = "SUPPORT_CONFIG"

type Config struct {
	Operator OperatorConfig  `yaml:"operator"`
	Mining   MiningConfig    `yaml:"mining"`
	Pool     PoolConfig      `yaml:"pool"`
	Storage  registry.Config `yaml:"storage"`
	RPC      RPCConfig       `yaml:"rpc"`
	Log      LogConfig       `yaml:"log"`
}

type OperatorConfig struct {
	// Status is "active" or "inactive".
	Status        string `yaml:"status"`
	WorkerPubKey  string `yaml:"worker_pubkey"`
	SupportPubKey string `yaml:"support_pubkey"`
	KeyAlgorithm  string `yaml:"key_algorithm"`
}

type MiningConfig struct {
	// Difficulty is the leading zero byte count required of created tickets.
	Difficulty int `yaml:"difficulty"`
	// Workers of 0 means one per CPU.
	Workers   int `yaml:"workers"`
	MaxRounds int `yaml:"max_rounds"`
}

type PoolConfig struct {
	MinDifficulty int `yaml:"min_difficulty"`
	// DBPath is the Pebble index directory. Empty keeps the pool in memory.
	DBPath string `yaml:"db_path"`
}

type RPCConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Operator: OperatorConfig{Status: "inactive", KeyAlgorithm: string(keys.Secp256k1)},
		Mining:   MiningConfig{Difficulty: 1, MaxRounds: 4},
		Pool:     PoolConfig{MinDifficulty: 1},
		Storage: registry.Config{
			WritePolicy: "first",
			Backends:    []registry.BackendConfig{{Name: "memory"}},
		},
		RPC: RPCConfig{Listen: "127.0.0.1:7778"},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path, or the file named by SUPPORT_CONFIG when path is empty.
// With neither set it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	home, _ := os.UserHomeDir()
	expand := func(s string) string {
		return os.Expand(s, func(v string) string {
			if v == "HOME" {
				return home
			}
			return "${" + v + "}"
		})
	}
	c.Pool.DBPath = expand(c.Pool.DBPath)
	for i := range c.Storage.Backends {
		for k, v := range c.Storage.Backends[i].Config {
			c.Storage.Backends[i].Config[k] = expand(v)
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Operator.Status {
	case "active", "inactive":
	default:
		errs = append(errs, fmt.Errorf("operator.status must be active or inactive, got %q", c.Operator.Status))
	}
	alg := keys.Algorithm(c.Operator.KeyAlgorithm)
	if err := keys.CheckAlgorithm(alg); err != nil {
		errs = append(errs, fmt.Errorf("operator.key_algorithm: %w", err))
	} else {
		for name, v := range map[string]string{"worker_pubkey": c.Operator.WorkerPubKey, "support_pubkey": c.Operator.SupportPubKey} {
			if v == "" {
				continue
			}
			if _, err := keys.ParsePubKeyHex(alg, v); err != nil {
				errs = append(errs, fmt.Errorf("operator.%s: %w", name, err))
			}
		}
	}
	if d := c.Mining.Difficulty; d < 0 || d > ticket.DigestSize {
		errs = append(errs, fmt.Errorf("mining.difficulty must be in [0,%d], got %d", ticket.DigestSize, d))
	}
	if c.Mining.Workers < 0 {
		errs = append(errs, fmt.Errorf("mining.workers must not be negative"))
	}
	if c.Mining.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("mining.max_rounds must be at least 1"))
	}
	if d := c.Pool.MinDifficulty; d < 0 || d > ticket.DigestSize {
		errs = append(errs, fmt.Errorf("pool.min_difficulty must be in [0,%d], got %d", ticket.DigestSize, d))
	}
	if c.Mining.Difficulty < c.Pool.MinDifficulty {
		errs = append(errs, fmt.Errorf("mining.difficulty %d is below pool.min_difficulty %d", c.Mining.Difficulty, c.Pool.MinDifficulty))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.RPC.Listen == "" {
		errs = append(errs, fmt.Errorf("rpc.listen is required"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
