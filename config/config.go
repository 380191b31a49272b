// ABOUTME: Configuration management for search parameters and API credentials
// ABOUTME: Handles loading/saving TOML config files with fallback to defaults and env overrides

// Package config loads the diversify configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the [spotify] credentials
const (
	EnvClientID     = "SPOTIPY_CLIENT_ID"
	EnvClientSecret = "SPOTIPY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIPY_REDIRECT_URI"
)

// Config is the full application configuration
type Config struct {
	GA      GAConfig      `toml:"ga"`
	Spotify SpotifyConfig `toml:"spotify"`
	Paths   PathsConfig   `toml:"paths"`
}

// GAConfig holds the genetic search parameters
type GAConfig struct {
	IndividualSize int     `toml:"individual_size"` // Songs per candidate playlist
	PopulationSize int     `toml:"population_size"`
	CrossoverRate  float64 `toml:"crossover_rate"`
	MutationRate   float64 `toml:"mutation_rate"`
	Generations    int     `toml:"generations"`
	TournamentSize int     `toml:"tournament_size"`
	Workers        int     `toml:"workers"` // Fitness workers, 0 = number of CPUs
	Seed           uint64  `toml:"seed"`    // 0 = random seed per run
}

// SpotifyConfig holds API credentials and client behaviour
type SpotifyConfig struct {
	ClientID          string  `toml:"client_id"`
	ClientSecret      string  `toml:"client_secret"`
	RedirectURI       string  `toml:"redirect_uri"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxRetries        int     `toml:"max_retries"`
	RetryBackoffMs    int     `toml:"retry_backoff_ms"`
}

// PathsConfig holds on-disk locations
type PathsConfig struct {
	TokenCache string `toml:"token_cache"` // Cached OAuth token
	CSVDir     string `toml:"csv_dir"`     // Optional <user>features.csv seed files
}

// GetConfigPath returns the default config file path
// First tries current directory, then falls back to ~/.config/diversify/config.toml
func GetConfigPath() string {
	if _, err := os.Stat("./diversify.toml"); err == nil {
		return "./diversify.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./diversify.toml"
	}

	return filepath.Join(home, ".config", "diversify", "config.toml")
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		GA: GAConfig{
			IndividualSize: 20,
			PopulationSize: 20,
			CrossoverRate:  0.7,
			MutationRate:   0.01,
			Generations:    50,
			TournamentSize: 3,
		},
		Spotify: SpotifyConfig{
			RedirectURI:       "http://localhost/",
			BaseURL:           "https://api.spotify.com/v1",
			RequestsPerSecond: 10,
			MaxRetries:        3,
			RetryBackoffMs:    500,
		},
		Paths: PathsConfig{
			TokenCache: filepath.Join(os.TempDir(), ".cache-diversify"),
			CSVDir:     "csvfiles",
		},
	}
}

// LoadConfig loads configuration from a TOML file.
// Keys missing from the file keep their default values.
// If the file doesn't exist, returns defaults without error.
// Environment credentials are applied last in every case.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv(os.Getenv)
			return cfg, nil
		}

		cfg.ApplyEnv(os.Getenv)

		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		defaults := DefaultConfig()
		defaults.ApplyEnv(os.Getenv)

		return defaults, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)

	return cfg, nil
}

// ApplyEnv overrides credentials with non-empty environment values
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvClientID); v != "" {
		c.Spotify.ClientID = v
	}

	if v := getenv(EnvClientSecret); v != "" {
		c.Spotify.ClientSecret = v
	}

	if v := getenv(EnvRedirectURI); v != "" {
		c.Spotify.RedirectURI = v
	}
}

// SaveConfig saves configuration to a TOML file
func SaveConfig(path string, config Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	config = roundConfigPrecision(config)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", err)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the search parameters for values the engine cannot run with
func (g GAConfig) Validate() error {
	var errs []error

	if g.IndividualSize < 4 {
		errs = append(errs, fmt.Errorf("individual_size must be at least 4, got %d", g.IndividualSize))
	}

	if g.PopulationSize < 2 {
		errs = append(errs, fmt.Errorf("population_size must be at least 2, got %d", g.PopulationSize))
	}

	if g.CrossoverRate < 0 || g.CrossoverRate > 1 {
		errs = append(errs, fmt.Errorf("crossover_rate must be within [0, 1], got %g", g.CrossoverRate))
	}

	if g.MutationRate < 0 || g.MutationRate > 1 {
		errs = append(errs, fmt.Errorf("mutation_rate must be within [0, 1], got %g", g.MutationRate))
	}

	if g.Generations < 0 {
		errs = append(errs, fmt.Errorf("generations must not be negative, got %d", g.Generations))
	}

	if g.TournamentSize < 1 {
		errs = append(errs, fmt.Errorf("tournament_size must be at least 1, got %d", g.TournamentSize))
	}

	return errors.Join(errs...)
}

// roundConfigPrecision rounds rates to 3 decimal places
func roundConfigPrecision(config Config) Config {
	round := func(x float64) float64 {
		return math.Round(x*1000) / 1000
	}

	config.GA.CrossoverRate = round(config.GA.CrossoverRate)
	config.GA.MutationRate = round(config.GA.MutationRate)

	return config
}
