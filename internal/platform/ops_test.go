package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mycel/internal/platform"
	"github.com/aretw0/mycel/pkg/adapters/fs"
	"github.com/aretw0/mycel/pkg/config"
	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/git"
)

func TestInit(t *testing.T) {
	t.Run("AutoInit Creates Root And Categories", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "kb")

		store, cfg, err := platform.Init(root, platform.WithAutoInit(true), platform.WithVersioning(false))
		require.NoError(t, err)

		repo, ok := store.(*fs.Repository)
		require.True(t, ok)
		assert.Equal(t, root, repo.Path)
		assert.False(t, repo.IsVersioned())
		assert.Equal(t, "mycel", cfg.Namespace)

		for _, dir := range []string{"concepts", "predicates", "topics", "resources"} {
			assert.DirExists(t, filepath.Join(root, dir))
		}
	})

	t.Run("MustExist Fails On Missing Root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "missing")

		_, _, err := platform.Init(root, platform.WithMustExist(true))
		assert.ErrorIs(t, err, core.ErrRootNotFound)
		assert.NoDirExists(t, root)
	})

	t.Run("Missing Root Fails On Load", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "missing")

		store, _, err := platform.Init(root)
		require.NoError(t, err)
		_, _, err = store.Load(context.Background())
		assert.ErrorIs(t, err, core.ErrRootNotFound)
	})

	t.Run("Root Is A File", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(root, []byte("x"), 0644))

		_, _, err := platform.Init(root)
		assert.ErrorIs(t, err, core.ErrRootNotFound)
	})

	t.Run("Config File Is Read", func(t *testing.T) {
		root := t.TempDir()
		yml := "namespace: kb\ncategories:\n  concepts: ideas\n  predicates: predicates\n  topics: topics\n  resources: resources\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(yml), 0644))

		_, cfg, err := platform.Init(root, platform.WithAutoInit(true), platform.WithVersioning(false))
		require.NoError(t, err)
		assert.Equal(t, "kb", cfg.Namespace)
		assert.DirExists(t, filepath.Join(root, "ideas"))
	})

	t.Run("Invalid Config Is Fatal", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("parallelism: 0\n"), 0644))

		_, _, err := platform.Init(root)
		assert.Error(t, err)
	})

	t.Run("Options Override Config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Namespace = "custom"

		_, got, err := platform.Init(t.TempDir(), platform.WithConfig(cfg), platform.WithParallelism(2))
		require.NoError(t, err)
		assert.Equal(t, "custom", got.Namespace)
		assert.Equal(t, 2, got.Parallelism)
	})

	t.Run("AutoInit With Versioning Creates Git Repo", func(t *testing.T) {
		if !git.IsInstalled() {
			t.Skip("git not installed")
		}
		root := filepath.Join(t.TempDir(), "kb")

		store, _, err := platform.Init(root, platform.WithAutoInit(true), platform.WithVersioning(true))
		require.NoError(t, err)
		assert.True(t, store.(*fs.Repository).IsVersioned())
		assert.DirExists(t, filepath.Join(root, ".git"))
	})
}

func TestNew(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	svc, err := platform.New(root,
		platform.WithAutoInit(true),
		platform.WithVersioning(false),
		platform.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	report, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Connected())
	assert.Equal(t, 0, report.Summary.Total)
}
