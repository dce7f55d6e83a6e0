package convert

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"lea/config"
	"lea/dialect"
	"lea/state"
)

func setupTestEnvForOutputPath(t *testing.T, transliterate bool, template string) (*state.LocalEnv, *state.Run) {
	t.Helper()
	env := &state.LocalEnv{
		Cfg: &config.Config{
			Paths: config.PathsConfig{Repo: "/repo", Epubs: "out"},
			Document: config.DocumentConfig{
				FileNameTransliterate: transliterate,
				OutputNameTemplate:    template,
			},
		},
		Log: zaptest.NewLogger(t),
	}
	return env, state.NewRun(env, env.Log)
}

func setupTestEbookForPath(t *testing.T) *dialect.Ebook {
	t.Helper()
	e := dialect.NewEbook("issues/tpsf-8.xml", []byte(`<lea:title>The Pitch: Issue 8</lea:title>
<lea:publisher contact="origins@logophilia.eu">Logophilia</lea:publisher>
<lea:author>Robert Sheckley</lea:author>
<lea:author>Clifford D. Simak</lea:author>
<lea:collection type="series" position="8" issn="1234-5678">The Pitch</lea:collection>
<lea:date>2025-03-03</lea:date>
<lea:language>en</lea:language>`))
	if err := e.Derive(time.Now()); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	return e
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		template      string
		transliterate bool
		want          string
	}{
		{
			name: "default name",
			want: "/repo/out/tpsf-8.epub",
		},
		{
			name:     "title and imprint",
			template: "{{ .Title }} - {{ .Imprint }}",
			want:     "/repo/out/The Pitch Issue 8 - Logophilia.epub",
		},
		{
			name:          "transliterated",
			template:      "{{ .Title }} - {{ .Imprint }}",
			transliterate: true,
			want:          "/repo/out/the-pitch-issue-8-logophilia.epub",
		},
		{
			name:     "subdirectories",
			template: "{{ .Collection.Title }}/{{ .Collection.Position }} {{ (index .Authors 0).Name }}",
			want:     "/repo/out/The Pitch/8 Robert Sheckley.epub",
		},
		{
			name:     "sprig functions",
			template: "{{ .Language | upper }}-{{ .Date | replace \"-\" \"\" }}",
			want:     "/repo/out/EN-20250303.epub",
		},
		{
			name:     "broken template falls back",
			template: "{{ .Title",
			want:     "/repo/out/tpsf-8.epub",
		},
		{
			name:     "unknown field falls back",
			template: "{{ .ISSN }}",
			want:     "/repo/out/tpsf-8.epub",
		},
		{
			name:     "blank expansion falls back",
			template: "{{ .SourceFile | trimAll \"tpsf-8\" }}  ",
			want:     "/repo/out/tpsf-8.epub",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if filepath.Separator != '/' {
				t.Skip("paths in expectations are unix style")
			}
			env, run := setupTestEnvForOutputPath(t, tt.transliterate, tt.template)
			got := buildOutputPath(setupTestEbookForPath(t), run, env)
			if got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"book", []string{"book"}},
		{filepath.Join("a", "b", "c"), []string{"a", "b", "c"}},
		{filepath.Join("a", "b") + string(filepath.Separator), []string{"a", "b"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := splitAndCleanPath(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndCleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndCleanPath(%q) = %q, want %q", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestBuildDefaultFileName(t *testing.T) {
	env, _ := setupTestEnvForOutputPath(t, false, "")
	if got := buildDefaultFileName("dir/.hidden.xml", env); got != "hidden.epub" {
		t.Errorf("buildDefaultFileName() = %q, want %q", got, "hidden.epub")
	}
	env.Cfg.Document.FileNameTransliterate = true
	if got := buildDefaultFileName("Été Numéro 8.xml", env); got != "ete-numero-8.epub" {
		t.Errorf("buildDefaultFileName() = %q, want %q", got, "ete-numero-8.epub")
	}
}
