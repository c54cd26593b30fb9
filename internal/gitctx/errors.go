package gitctx

import (
	"fmt"
	"strings"
)

// RepositoryError reports a path that is missing or not a git repository.
type RepositoryError struct {
	Path string
	Err  error
}

func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not a git repository: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("not a git repository: %s", e.Path)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// ReferenceError reports a ref that does not resolve to a commit.
type ReferenceError struct {
	Ref string
	Err error
}

func (e *ReferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unknown revision %q: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("unknown revision %q", e.Ref)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// ToolError reports a git invocation that could not start or exited non-zero.
type ToolError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := "git"
	if len(e.Args) > 0 {
		msg += " " + strings.Join(e.Args, " ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }
