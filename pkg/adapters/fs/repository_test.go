package fs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mycel/pkg/adapters/fs"
	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/git"
)

// setupRepo creates a content root with the standard category directories.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	root := t.TempDir()
	for _, dir := range fs.DefaultCategories() {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}

	cfg := fs.Config{Path: root, Parallelism: 4}
	for _, opt := range opts {
		opt(&cfg)
	}
	return fs.NewRepository(cfg), root
}

func writeJSON(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func warningCodes(warnings []core.Warning) []string {
	var codes []string
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Reads All Categories", func(t *testing.T) {
		repo, root := setupRepo(t)
		writeJSON(t, filepath.Join(root, "topics", "t1.json"),
			`{"@id":"urn:x:topic:t1","@type":"Topic","name":"T1","hasPart":["urn:x:concept:c1"]}`)
		writeJSON(t, filepath.Join(root, "concepts", "c1.json"),
			`{"@id":"urn:x:concept:c1","@type":"Concept","name":"C1","relatedConcepts":{"@id":"urn:x:concept:c2"}}`)
		writeJSON(t, filepath.Join(root, "resources", "r1.json"),
			`{"@id":"urn:x:resource:r1","name":"R1","isPartOf":"urn:x:topic:t1"}`)
		writeJSON(t, filepath.Join(root, "predicates", "p1.json"),
			`{"@id":"urn:x:predicate:p1","name":"P1","subjectOf":"urn:x:concept:c1","targetCollection":["urn:x:concept:c2"],"weight":2}`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, 4, corpus.Len())

		c1, ok := corpus.Get("urn:x:concept:c1")
		require.True(t, ok)
		assert.Equal(t, core.KindConcept, c1.Kind)
		assert.Equal(t, core.Refs("urn:x:concept:c2"), c1.RelatedIDs)

		r1, _ := corpus.Get("urn:x:resource:r1")
		assert.Equal(t, core.Ref("urn:x:topic:t1"), r1.ContainerID)

		p1, _ := corpus.Get("urn:x:predicate:p1")
		assert.Equal(t, core.Ref("urn:x:concept:c1"), p1.SubjectID)
		assert.Equal(t, 2.0, p1.Weight)
		assert.Equal(t, filepath.Join(root, "predicates", "p1.json"), p1.Path)
	})

	t.Run("Missing Category Is a Warning", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "topics"), 0755))
		repo := fs.NewRepository(fs.Config{Path: root})

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, corpus.Len())
		assert.Len(t, warnings, 3)
		for _, w := range warnings {
			assert.Equal(t, core.WarnMissingDir, w.Code)
		}
	})

	t.Run("Missing Root Is Fatal", func(t *testing.T) {
		repo := fs.NewRepository(fs.Config{Path: filepath.Join(t.TempDir(), "nope")})
		_, _, err := repo.Load(ctx)
		assert.ErrorIs(t, err, core.ErrRootNotFound)
	})

	t.Run("Category That Is a File Is Fatal", func(t *testing.T) {
		root := t.TempDir()
		writeJSON(t, filepath.Join(root, "concepts"), "{}")
		repo := fs.NewRepository(fs.Config{Path: root})

		_, _, err := repo.Load(ctx)
		assert.ErrorIs(t, err, core.ErrCategoryUnresolvable)
	})

	t.Run("Malformed Files Are Skipped", func(t *testing.T) {
		repo, root := setupRepo(t)
		writeJSON(t, filepath.Join(root, "concepts", "bad.json"), `{not json`)
		writeJSON(t, filepath.Join(root, "concepts", "noid.json"), `{"name":"anonymous"}`)
		writeJSON(t, filepath.Join(root, "concepts", "good.json"), `{"@id":"urn:x:concept:good","name":"Good"}`)
		writeJSON(t, filepath.Join(root, "concepts", "notes.txt"), `ignored`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"urn:x:concept:good"}, corpus.IDs(core.KindConcept))
		assert.ElementsMatch(t, []string{core.WarnMalformed, core.WarnMissingID}, warningCodes(warnings))
	})

	t.Run("Duplicate Id Keeps the First File", func(t *testing.T) {
		repo, root := setupRepo(t)
		writeJSON(t, filepath.Join(root, "concepts", "a.json"), `{"@id":"urn:x:concept:c","name":"First"}`)
		writeJSON(t, filepath.Join(root, "concepts", "b.json"), `{"@id":"urn:x:concept:c","name":"Second"}`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		c, _ := corpus.Get("urn:x:concept:c")
		assert.Equal(t, "First", c.DisplayName)
		assert.Equal(t, []string{core.WarnDuplicateID}, warningCodes(warnings))
	})

	t.Run("Kind Mismatch Trusts the Directory", func(t *testing.T) {
		repo, root := setupRepo(t)
		writeJSON(t, filepath.Join(root, "concepts", "c.json"), `{"@id":"urn:x:concept:c","@type":"Topic"}`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"urn:x:concept:c"}, corpus.IDs(core.KindConcept))
		assert.Equal(t, []string{core.WarnKindMismatch}, warningCodes(warnings))
	})

	t.Run("Exclude Patterns", func(t *testing.T) {
		repo, root := setupRepo(t, func(c *fs.Config) {
			c.Exclude = []string{"concepts/drafts/**"}
		})
		writeJSON(t, filepath.Join(root, "concepts", "drafts", "d.json"), `{"@id":"urn:x:concept:d"}`)
		writeJSON(t, filepath.Join(root, "concepts", "nested", "n.json"), `{"@id":"urn:x:concept:n"}`)

		corpus, _, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"urn:x:concept:n"}, corpus.IDs(core.KindConcept))
	})

	t.Run("Index Stubs Are Replaced by Files", func(t *testing.T) {
		repo, root := setupRepo(t)
		writeJSON(t, filepath.Join(root, "concepts-index.json"),
			`[{"@id":"urn:x:concept:a","name":"Stub A"},{"@id":"urn:x:concept:b","name":"Stub B"}]`)
		writeJSON(t, filepath.Join(root, "content-index.json"),
			`{"@type":"ItemList","itemListElement":[{"@type":"ListItem","item":{"@id":"urn:x:topic:t","@type":"Topic","name":"T"}}]}`)
		writeJSON(t, filepath.Join(root, "concepts", "b.json"), `{"@id":"urn:x:concept:b","name":"File B"}`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, []string{"urn:x:concept:a", "urn:x:concept:b"}, corpus.IDs(core.KindConcept))
		assert.Equal(t, []string{"urn:x:topic:t"}, corpus.IDs(core.KindTopic))

		b, _ := corpus.Get("urn:x:concept:b")
		assert.Equal(t, "File B", b.DisplayName)
		a, _ := corpus.Get("urn:x:concept:a")
		assert.Empty(t, a.Path)
	})

	t.Run("File Wins Over Stub Of Another Kind", func(t *testing.T) {
		repo, root := setupRepo(t)
		writeJSON(t, filepath.Join(root, "content-index.json"),
			`[{"@id":"urn:kb:topic:t1","@type":"Concept","name":"stub"}]`)
		writeJSON(t, filepath.Join(root, "topics", "t1.json"), `{"@id":"urn:kb:topic:t1","@type":"Topic","name":"Full"}`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{core.WarnKindMismatch}, warningCodes(warnings))
		assert.Empty(t, corpus.IDs(core.KindConcept))
		assert.Equal(t, []string{"urn:kb:topic:t1"}, corpus.IDs(core.KindTopic))

		t1, ok := corpus.Get("urn:kb:topic:t1")
		require.True(t, ok)
		assert.Equal(t, "Full", t1.DisplayName)
		assert.Equal(t, core.KindTopic, t1.Kind)
	})

	t.Run("Single Worker Waits For Every File", func(t *testing.T) {
		repo, root := setupRepo(t, func(c *fs.Config) { c.Parallelism = 1 })
		var want []string
		for i := 0; i < 40; i++ {
			id := fmt.Sprintf("urn:x:concept:c%02d", i)
			want = append(want, id)
			writeJSON(t, filepath.Join(root, "concepts", fmt.Sprintf("c%02d.json", i)), `{"@id":"`+id+`"}`)
		}
		writeJSON(t, filepath.Join(root, "concepts", "zz-bad.json"), `{`)

		corpus, warnings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, corpus.IDs(core.KindConcept))
		assert.Equal(t, []string{core.WarnMalformed}, warningCodes(warnings))
	})

	t.Run("Deterministic Order", func(t *testing.T) {
		repo, root := setupRepo(t)
		for _, name := range []string{"c", "a", "e", "b", "d"} {
			writeJSON(t, filepath.Join(root, "concepts", name+".json"), `{"@id":"urn:x:concept:`+name+`"}`)
		}

		first, _, err := repo.Load(ctx)
		require.NoError(t, err)
		second, _, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"urn:x:concept:a", "urn:x:concept:b", "urn:x:concept:c", "urn:x:concept:d", "urn:x:concept:e",
		}, first.IDs(core.KindConcept))
		assert.Equal(t, first.IDs(core.KindConcept), second.IDs(core.KindConcept))
	})
}

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, root := setupRepo(t)

	rec := core.Record{
		ID:          "urn:x:predicate:auto-relatedTo:c1:t1",
		Kind:        core.KindPredicate,
		DisplayName: "C1 related to T1",
		SubjectID:   "urn:x:concept:c1",
		TargetIDs:   core.Refs("urn:x:topic:t1"),
		Extra:       map[string]any{"license": "CC-BY"},
	}

	assert.False(t, repo.Exists(ctx, core.KindPredicate, rec.ID))
	require.NoError(t, repo.Save(ctx, rec))
	assert.True(t, repo.Exists(ctx, core.KindPredicate, rec.ID))
	assert.FileExists(t, filepath.Join(root, "predicates", "auto-relatedTo-c1-t1.json"))

	got, err := repo.Get(ctx, core.KindPredicate, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.SubjectID, got.SubjectID)
	assert.Equal(t, rec.TargetIDs, got.TargetIDs)
	assert.Equal(t, "CC-BY", got.Extra["license"])

	require.NoError(t, repo.Delete(ctx, core.KindPredicate, rec.ID))
	assert.False(t, repo.Exists(ctx, core.KindPredicate, rec.ID))

	_, err = repo.Get(ctx, core.KindPredicate, rec.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, core.KindPredicate, rec.ID), core.ErrNotFound)
}

func TestSaveKeepsLoadedPath(t *testing.T) {
	ctx := context.Background()
	repo, root := setupRepo(t)
	custom := filepath.Join(root, "topics", "my-topic.json")
	writeJSON(t, custom, `{"@id":"urn:x:topic:t1","name":"T1","hasPart":[]}`)

	corpus, _, err := repo.Load(ctx)
	require.NoError(t, err)
	t1, _ := corpus.Get("urn:x:topic:t1")
	t1.ContainedIDs = core.Refs("urn:x:concept:c1")
	t1.Path = ""

	require.NoError(t, repo.Save(ctx, t1))
	assert.NoFileExists(t, filepath.Join(root, "topics", "t1.json"))

	got, err := repo.Get(ctx, core.KindTopic, "urn:x:topic:t1")
	require.NoError(t, err)
	assert.Equal(t, core.Refs("urn:x:concept:c1"), got.ContainedIDs)
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"urn:x:concept:coherence":              "coherence.json",
		"urn:x:predicate:auto-relatedTo:c1:t1": "auto-relatedTo-c1-t1.json",
		"plain-id":                             "plain-id.json",
		"http://example.org/a":                 "http---example.org-a.json",
		"urn:x:topic":                          "urn-x-topic.json",
	}
	for id, want := range cases {
		assert.Equal(t, want, fs.FileName(id), id)
	}
}

func TestState(t *testing.T) {
	repo, root := setupRepo(t)
	writeJSON(t, filepath.Join(root, "topics", "t.json"), `{"@id":"urn:x:topic:t"}`)

	_, _, err := repo.Load(context.Background())
	require.NoError(t, err)

	state, ok := repo.State().(fs.RepositoryState)
	require.True(t, ok)
	assert.Equal(t, root, state.Path)
	assert.Equal(t, 1, state.Counts[core.KindTopic])
	assert.Equal(t, 1, state.KnownPaths)
	assert.NotNil(t, state.LastLoad)
	assert.Equal(t, "repository", repo.ComponentType())
}

func TestVersioning(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	repo, root := setupRepo(t, func(c *fs.Config) { c.Versioning = true })

	client := git.NewClient(root, nil)
	require.NoError(t, client.Init())
	_, err := client.Run("config", "user.email", "test@example.com")
	require.NoError(t, err)
	_, err = client.Run("config", "user.name", "test")
	require.NoError(t, err)

	ctx = context.WithValue(ctx, core.ChangeReasonKey, "manual reconnect")
	require.NoError(t, repo.Save(ctx, core.Record{ID: "urn:x:topic:t", Kind: core.KindTopic, DisplayName: "T"}))

	body, err := client.Run("log", "-1", "--format=%B")
	require.NoError(t, err)
	assert.Equal(t, "manual reconnect\n\n"+git.Footer, strings.TrimSpace(body))

	writeJSON(t, filepath.Join(root, "concepts", "draft.json"), `{"@id":"urn:x:concept:draft"}`)
	state := repo.State().(fs.RepositoryState)
	require.Len(t, state.Uncommitted, 1)
	assert.Contains(t, state.Uncommitted[0], "draft.json")
}
