package review

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is one file's review.
type Entry struct {
	Path   string
	Review string
}

// Result maps file paths to review text and remembers insertion order. The
// zero value is an empty Result ready to use.
type Result struct {
	entries []Entry
	index   map[string]int
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{}
}

// Set stores the review for path. Setting an existing path replaces its
// review without changing its position.
func (r *Result) Set(path, review string) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[path]; ok {
		r.entries[i].Review = review
		return
	}
	r.index[path] = len(r.entries)
	r.entries = append(r.entries, Entry{Path: path, Review: review})
}

// Get returns the review for path.
func (r *Result) Get(path string) (string, bool) {
	i, ok := r.index[path]
	if !ok {
		return "", false
	}
	return r.entries[i].Review, true
}

// Len returns the number of files in the result.
func (r *Result) Len() int { return len(r.entries) }

// Paths returns the file paths in insertion order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.entries))
	for i, e := range r.entries {
		paths[i] = e.Path
	}
	return paths
}

// Entries returns a copy of the entries in insertion order.
func (r *Result) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// MarshalJSON encodes the result as a flat JSON object whose keys appear in
// insertion order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, e.Path); err != nil {
			return nil, fmt.Errorf("encoding path %q: %w", e.Path, err)
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, e.Review); err != nil {
			return nil, fmt.Errorf("encoding review for %q: %w", e.Path, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object of string values, keeping the order of
// keys in the document.
func (r *Result) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("review result must be a JSON object, got %v", tok)
	}

	*r = Result{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var review string
		if err := dec.Decode(&review); err != nil {
			return fmt.Errorf("review for %q: %w", key, err)
		}
		r.Set(key, review)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
