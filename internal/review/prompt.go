package review

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const systemPrompt = `You are an expert software engineer reviewing a pull request. You write plain-text review comments for a single file at a time. Be concise and constructive. Point out bugs, incorrect logic, security problems, poor coding practices and missed edge cases, and suggest concrete improvements. If the change looks correct, say so briefly.`

const defaultTemplateText = `Compare the branch {{.Source}} against {{.Target}}.
A developer changed the file {{.Path}}{{if .Language}} ({{.Language}}){{end}}{{if eq .Operation "renamed"}}, renamed from {{.OldPath}}{{end}}{{if eq .Operation "added"}}, which is a new file{{end}}{{if eq .Operation "deleted"}}, which was deleted{{end}}.
{{if .Content}}
Below is the full content of the file on {{.Source}}, followed by the diff between the two branches. Use the file for context, but comment only on lines that appear in the diff.

<file_content>
{{.Content}}
</file_content>
{{else}}
Below is the diff between the two branches. Comment only on lines that appear in the diff.
{{end}}
<diff_patch>
{{.Diff}}
</diff_patch>

Write your review of this change.
`

// PromptData is the data a prompt template is executed with.
type PromptData struct {
	Path      string
	OldPath   string
	Operation string
	Language  string
	Source    string
	Target    string
	Diff      string
	Content   string
}

// Template renders the per-file review prompt.
type Template struct {
	tmpl *template.Template
}

// DefaultTemplate returns the built-in prompt template.
func DefaultTemplate() *Template {
	t, err := ParseTemplate("default", defaultTemplateText)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTemplate parses a text/template prompt. The template is executed once
// against sample data so that references to unknown fields fail here rather
// than halfway through a review.
func ParseTemplate(name, text string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	t := &Template{tmpl: tmpl}
	if _, err := t.Render(PromptData{
		Path:      "main.go",
		OldPath:   "main.go",
		Operation: "modified",
		Language:  "Go",
		Source:    "feature",
		Target:    "main",
		Diff:      "diff",
		Content:   "content",
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTemplate reads and parses a prompt template from a file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template: %w", err)
	}
	return ParseTemplate(filepath.Base(path), string(data))
}

// Render executes the template.
func (t *Template) Render(data PromptData) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering prompt for %s: %w", data.Path, err)
	}
	return b.String(), nil
}

// SystemPrompt returns the system prompt sent with every review request.
func SystemPrompt() string {
	return systemPrompt
}

var langMap = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".tf":    "Terraform",
	".md":    "Markdown",
}

// detectLanguage names the language of path from its extension, or returns
// the empty string.
func detectLanguage(path string) string {
	return langMap[strings.ToLower(filepath.Ext(path))]
}
