package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/pepgenome/internal/annotation"
	"github.com/inodb/pepgenome/internal/kmer"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.KmerLength)
	assert.Equal(t, 0, cfg.AllowedMismatches)
	assert.False(t, cfg.MinimumSpacingMode)
	assert.Equal(t, annotation.ModeAuto, cfg.FeatureMode)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, DefaultCacheDir(), cfg.CacheDir)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set(KeyKmerLength, "4")
	v.Set(KeyAllowedMismatches, 2)
	v.Set(KeyMinimumSpacingMode, true)
	v.Set(KeyFeatureMode, "EXON")
	v.Set(KeyWorkers, 3)
	v.Set(KeyCacheDir, "/tmp/pg")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Config{
		KmerLength:         4,
		AllowedMismatches:  2,
		MinimumSpacingMode: true,
		FeatureMode:        annotation.ModeExon,
		Workers:            3,
		CacheDir:           "/tmp/pg",
	}, cfg)
	assert.Equal(t, kmer.Config{KmerLength: 4, AllowedMismatches: 2, MinimumSpacing: true}, cfg.Index())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PEPGENOME_ALLOWED_MISMATCHES", "1")
	t.Setenv("PEPGENOME_FEATURE_MODE", "cds")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.AllowedMismatches)
	assert.Equal(t, annotation.ModeCDS, cfg.FeatureMode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"zero kmer length", KeyKmerLength, 0},
		{"negative mismatches", KeyAllowedMismatches, -1},
		{"negative workers", KeyWorkers, -2},
		{"unknown feature mode", KeyFeatureMode, "gene"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
