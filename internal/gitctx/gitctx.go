package gitctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DiffOptions controls how branch diffs are gathered.
type DiffOptions struct {
	// ContextLines is passed to git as -U<n>. Nil keeps git's default.
	ContextLines *int
	// MergeBase diffs source against its merge base with target
	// (target...source) instead of against target's tip.
	MergeBase bool
	Include   []string
	Exclude   []string
}

// Repo is a git repository on disk. All git invocations run with -C set to
// the repository path.
type Repo struct {
	path string
	git  string
}

// Open checks that git is installed and that path is inside a git
// repository. An empty path means the current directory.
func Open(ctx context.Context, path string) (*Repo, error) {
	if path == "" {
		path = "."
	}
	git, err := exec.LookPath("git")
	if err != nil {
		return nil, &ToolError{Err: fmt.Errorf("git executable not found: %w", err)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &RepositoryError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return nil, &RepositoryError{Path: path, Err: errors.New("not a directory")}
	}

	r := &Repo{path: path, git: git}
	if _, err := r.output(ctx, "rev-parse", "--git-dir"); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &RepositoryError{Path: path, Err: err}
	}
	return r, nil
}

// Path returns the repository path the Repo was opened with.
func (r *Repo) Path() string { return r.path }

// Resolve returns the commit SHA that ref points to.
func (r *Repo) Resolve(ctx context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", &ReferenceError{Ref: ref, Err: errors.New("empty revision")}
	}
	// Keep refs from being read as git options.
	if strings.HasPrefix(ref, "-") {
		return "", &ReferenceError{Ref: ref, Err: errors.New("revision must not start with '-'")}
	}

	out, err := r.output(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return "", &ReferenceError{Ref: ref}
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Diff returns the changes that source introduces relative to target, one
// FileDiff per changed file in the order git reports them. Identical
// branches yield an empty slice.
func (r *Repo) Diff(ctx context.Context, source, target string, opts DiffOptions) ([]FileDiff, error) {
	sourceSHA, err := r.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	targetSHA, err := r.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	args := buildDiffArgs(sourceSHA, targetSHA, opts)
	out, err := r.output(ctx, args...)
	if err != nil {
		return nil, err
	}

	files, err := Split(out)
	if err != nil {
		return nil, &ToolError{Args: args, Err: fmt.Errorf("parsing diff output: %w", err)}
	}
	if len(opts.Exclude) > 0 {
		files = filterExcluded(files, opts.Exclude)
	}
	return files, nil
}

// FileContent returns the content of path as of ref.
func (r *Repo) FileContent(ctx context.Context, ref, path string) (string, error) {
	return r.output(ctx, "show", ref+":"+path)
}

func buildDiffArgs(source, target string, opts DiffOptions) []string {
	args := []string{"diff", "--no-color", "--no-ext-diff", "--src-prefix=a/", "--dst-prefix=b/"}
	if opts.ContextLines != nil {
		args = append(args, fmt.Sprintf("-U%d", *opts.ContextLines))
	}
	if opts.MergeBase {
		args = append(args, target+"..."+source)
	} else {
		args = append(args, target, source)
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

func filterExcluded(files []FileDiff, excludes []string) []FileDiff {
	kept := make([]FileDiff, 0, len(files))
	for _, f := range files {
		if !MatchesAny(f.Path, excludes) {
			kept = append(kept, f)
		}
	}
	return kept
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.git, append([]string{"-C", r.path}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		// A process killed by ctx reports only its signal.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return string(out), &ToolError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return string(out), nil
}
