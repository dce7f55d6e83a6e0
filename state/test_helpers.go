package state

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"lea/config"
)

// NewTestRun creates compilation context over repository rooted at repo with
// default directory names.
func NewTestRun(t testing.TB, repo string) *Run {
	t.Helper()

	env := &LocalEnv{
		Cfg: &config.Config{
			Paths: config.PathsConfig{
				Repo:   repo,
				Ebooks: "ebooks",
				Text:   "text",
				Blocks: "blocks",
				Images: "images",
				Fonts:  "fonts",
				Styles: "styles",
				Epubs:  "epubs",
			},
			Document: config.DocumentConfig{
				FixZip:             true,
				OutputNameTemplate: "{{ .Title }} - {{ .Imprint }}",
				Cover:              config.CoverConfig{Width: 1600, Height: 2560},
			},
		},
	}
	return NewRun(env, zaptest.NewLogger(t))
}

// WriteTestFile creates file (and all necessary directories) under repo.
func WriteTestFile(t testing.TB, repo, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(repo, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("unable to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("unable to write %s: %v", name, err)
	}
	return path
}
