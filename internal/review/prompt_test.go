package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate_Render(t *testing.T) {
	out, err := DefaultTemplate().Render(PromptData{
		Path:      "file.py",
		Operation: "modified",
		Language:  "Python",
		Source:    "feature",
		Target:    "main",
		Diff:      "+print('world')",
		Content:   "print('hello')\nprint('world')\n",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "file.py (Python)")
	assert.Contains(t, out, "feature")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "<file_content>\nprint('hello')")
	assert.Contains(t, out, "<diff_patch>\n+print('world')\n</diff_patch>")
}

func TestDefaultTemplate_RenderWithoutContent(t *testing.T) {
	out, err := DefaultTemplate().Render(PromptData{
		Path:      "new/name.go",
		OldPath:   "old/name.go",
		Operation: "renamed",
		Diff:      "diff",
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "<file_content>")
	assert.Contains(t, out, "renamed from old/name.go")
	assert.Contains(t, out, "<diff_patch>\ndiff\n</diff_patch>")
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("custom", "Review {{.Path}} ({{.Operation}}):\n{{.Diff}}")
	require.NoError(t, err)

	out, err := tmpl.Render(PromptData{Path: "a.go", Operation: "added", Diff: "+x"})
	require.NoError(t, err)
	assert.Equal(t, "Review a.go (added):\n+x", out)
}

func TestParseTemplate_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", "{{.Path"},
		{"unknown field", "{{.Findings}}"},
		{"unknown function", "{{shout .Path}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate("bad", tt.text)
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.Source}}..{{.Target}} {{.Path}}"), 0o644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	out, err := tmpl.Render(PromptData{Source: "feature", Target: "main", Path: "x.go"})
	require.NoError(t, err)
	assert.Equal(t, "feature..main x.go", out)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.Error(t, err)
}

func TestSystemPrompt(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(SystemPrompt()))
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"main.go":          "Go",
		"scripts/run.sh":   "Shell",
		"web/App.TSX":      "TypeScript/React",
		"Makefile":         "",
		"docs/notes.weird": "",
	}
	for path, want := range tests {
		assert.Equal(t, want, detectLanguage(path), path)
	}
}
