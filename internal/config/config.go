// Package config loads pepgenome settings from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/inodb/pepgenome/internal/annotation"
	"github.com/inodb/pepgenome/internal/kmer"
)

// Configuration keys.
const (
	KeyKmerLength         = "kmer_length"
	KeyAllowedMismatches  = "allowed_mismatches"
	KeyMinimumSpacingMode = "minimum_spacing_mode"
	KeyFeatureMode        = "feature_mode"
	KeyWorkers            = "workers"
	KeyCacheDir           = "cache_dir"
)

// EnvPrefix is prepended to environment variable overrides (PEPGENOME_KMER_LENGTH).
const EnvPrefix = "PEPGENOME"

// Config holds the validated settings of a run.
type Config struct {
	KmerLength         int
	AllowedMismatches  int
	MinimumSpacingMode bool
	FeatureMode        annotation.FeatureMode
	Workers            int // 0 means one per CPU
	CacheDir           string
}

// DefaultCacheDir returns ~/.pepgenome, or a relative .pepgenome when the
// home directory is unknown.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pepgenome"
	}
	return filepath.Join(home, ".pepgenome")
}

// SetDefaults registers default values and environment overrides on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyKmerLength, kmer.DefaultConfig().KmerLength)
	v.SetDefault(KeyAllowedMismatches, 0)
	v.SetDefault(KeyMinimumSpacingMode, false)
	v.SetDefault(KeyFeatureMode, annotation.ModeAuto.String())
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyCacheDir, DefaultCacheDir())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	mode, err := annotation.ParseFeatureMode(strings.ToLower(v.GetString(KeyFeatureMode)))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyFeatureMode, err)
	}

	cfg := Config{
		KmerLength:         v.GetInt(KeyKmerLength),
		AllowedMismatches:  v.GetInt(KeyAllowedMismatches),
		MinimumSpacingMode: v.GetBool(KeyMinimumSpacingMode),
		FeatureMode:        mode,
		Workers:            v.GetInt(KeyWorkers),
		CacheDir:           v.GetString(KeyCacheDir),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := c.Index().Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Index returns the k-mer index settings.
func (c Config) Index() kmer.Config {
	return kmer.Config{
		KmerLength:        c.KmerLength,
		AllowedMismatches: c.AllowedMismatches,
		MinimumSpacing:    c.MinimumSpacingMode,
	}
}
