package gitctx

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// Operation describes what a diff does to a file.
type Operation string

const (
	OpAdded    Operation = "added"
	OpModified Operation = "modified"
	OpDeleted  Operation = "deleted"
	OpRenamed  Operation = "renamed"
	OpCopied   Operation = "copied"
)

// FileDiff is the slice of a unified diff that touches a single file.
type FileDiff struct {
	// Path is the file's path after the change, or before it for deletions.
	Path      string
	OldPath   string
	Operation Operation
	IsBinary  bool
	Added     int
	Deleted   int
	// Text is the raw diff section, starting at its "diff --git" line.
	Text string
}

const sectionHeader = "diff --git "

// Split partitions unified diff text into per-file sections in the order they
// appear. Text before the first "diff --git" header is ignored. An empty diff
// yields an empty slice.
func Split(diff string) ([]FileDiff, error) {
	sections := splitDiffSections(diff)
	files := make([]FileDiff, 0, len(sections))
	for i, sec := range sections {
		parsed, _, err := gitdiff.Parse(strings.NewReader(sec))
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i+1, err)
		}
		if len(parsed) == 0 {
			continue
		}
		files = append(files, newFileDiff(parsed[0], sec))
	}
	return files, nil
}

func splitDiffSections(diff string) []string {
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		isHeader := strings.HasPrefix(line, sectionHeader)
		if isHeader && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		if current.Len() == 0 && !isHeader {
			continue
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func newFileDiff(f *gitdiff.File, text string) FileDiff {
	fd := FileDiff{
		Path:     f.NewName,
		OldPath:  f.OldName,
		IsBinary: f.IsBinary,
		Text:     text,
	}

	switch {
	case f.IsNew:
		fd.Operation = OpAdded
	case f.IsDelete:
		fd.Operation = OpDeleted
	case f.IsRename:
		fd.Operation = OpRenamed
	case f.IsCopy:
		fd.Operation = OpCopied
	default:
		fd.Operation = OpModified
	}
	if fd.Operation == OpDeleted || fd.Path == "" {
		fd.Path = f.OldName
	}

	for _, frag := range f.TextFragments {
		fd.Added += int(frag.LinesAdded)
		fd.Deleted += int(frag.LinesDeleted)
	}
	return fd
}
