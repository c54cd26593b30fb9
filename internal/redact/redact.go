package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	placeholder     = "[REDACTED]"
	pathPlaceholder = placeholder + " (file content withheld by path policy)\n"
)

type rule struct {
	name string
	re   *regexp.Regexp
}

// rules are regex heuristics for common secret shapes. Order matters: the
// provider-specific keys run before the generic sk- pattern.
var rules = []rule{
	{"api key assignment", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws access key id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws secret access key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"credential assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`)},
	{"connection string password", regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:/\s@]+:[^@\s]+@`)},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"hex secret assignment", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Policy decides what is withheld from a prompt.
type Policy struct {
	// Enabled turns redaction on. The zero Policy passes text through.
	Enabled bool
	// Paths are glob patterns for files whose whole text is withheld.
	Paths []string
}

// Apply returns text with secrets replaced by [REDACTED]. When path matches
// one of the policy's patterns the whole text is replaced instead.
func (p Policy) Apply(path, text string) string {
	if !p.Enabled {
		return text
	}
	if MatchPath(path, p.Paths) {
		return pathPlaceholder
	}
	return Secrets(text)
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllLiteralString(text, placeholder)
	}
	return text
}

// Find returns the names of the rules that match text, in rule order.
func Find(text string) []string {
	var names []string
	for _, r := range rules {
		if r.re.MatchString(text) {
			names = append(names, r.name)
		}
	}
	return names
}

// MatchPath reports whether path matches any of the glob patterns. A leading
// "**/" matches at any depth.
func MatchPath(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		rest, found := strings.CutPrefix(pattern, "**/")
		if !found {
			continue
		}
		if ok, err := filepath.Match(rest, filepath.Base(path)); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(rest, path); err == nil && ok {
			return true
		}
	}
	return false
}
