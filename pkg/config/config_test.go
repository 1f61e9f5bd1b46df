package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/mycel/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 5, cfg.Propagation.MaxPasses)
	assert.Equal(t, "auto-relatedTo", cfg.Promotion.Marker)
}

func TestLoad_Overrides(t *testing.T) {
	root := t.TempDir()
	yml := `
namespace: lab
lock_timeout: 2s
exclude: ["**/drafts/**"]
propagation:
  max_passes: 3
  bidirectional_predicates: true
promotion:
  rules:
    - pattern: lemma
      verb: supports
`
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(yml), 0644))

	cfg, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "lab", cfg.Namespace)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, 3, cfg.Propagation.MaxPasses)
	assert.True(t, cfg.Propagation.BidirectionalPredicates)
	assert.Equal(t, []config.Rule{{Pattern: "lemma", Verb: "supports"}}, cfg.Promotion.Rules)
	// untouched keys keep defaults
	assert.Equal(t, "topics", cfg.Categories.Topics)
	assert.Equal(t, float64(5), cfg.Scoring.TokenWeight)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"bad yaml", "namespace: [unterminated"},
		{"zero passes", "propagation: {max_passes: 0}"},
		{"bad glob", "exclude: [\"[\"]"},
		{"empty marker", "promotion: {marker: \"\"}"},
		{"half rule", "promotion: {rules: [{pattern: x}]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(tt.yml), 0644))
			_, err := config.Load(root)
			assert.Error(t, err)
		})
	}
}
