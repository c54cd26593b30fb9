package review

import (
	"context"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/prreview/internal/gitctx"
	"github.com/dshills/prreview/internal/providers"
	"github.com/dshills/prreview/internal/redact"
)

// truncatedMarker is appended to file content cut at Options.MaxContentBytes.
const truncatedMarker = "\n... (file truncated)\n"

// ContentSource reads a file as it exists at a revision.
type ContentSource interface {
	FileContent(ctx context.Context, ref, path string) (string, error)
}

// Options controls a review run.
type Options struct {
	// Source and Target are the branch names shown in the prompt. File
	// content is read at Source.
	Source string
	Target string

	// Template renders each prompt. Nil means DefaultTemplate.
	Template *Template
	// System is sent as the system prompt. Empty means SystemPrompt().
	System string

	// Workers is the number of files reviewed concurrently. Values below 2
	// review one file at a time.
	Workers int

	// IncludeContent adds the full source-side file to each prompt.
	IncludeContent  bool
	MaxContentBytes int

	Redact redact.Policy

	// Progress receives one line per file as it is sent for review.
	Progress io.Writer
}

// Run reviews every file in files and returns the reviews keyed by path in
// the order of files. The first failure aborts the run and no partial result
// is returned.
func Run(ctx context.Context, files []gitctx.FileDiff, gen providers.Generator, content ContentSource, opts Options) (*Result, error) {
	if opts.Template == nil {
		opts.Template = DefaultTemplate()
	}
	if opts.System == "" {
		opts.System = SystemPrompt()
	}
	if opts.Progress != nil {
		opts.Progress = &lockedWriter{w: opts.Progress}
	}

	reviews := make([]string, len(files))
	if opts.Workers <= 1 {
		for i, f := range files {
			text, err := reviewFile(ctx, i, len(files), f, gen, content, opts)
			if err != nil {
				return nil, err
			}
			reviews[i] = text
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i, f := range files {
			if gctx.Err() != nil {
				break
			}
			i, f := i, f
			g.Go(func() error {
				text, err := reviewFile(gctx, i, len(files), f, gen, content, opts)
				if err != nil {
					return err
				}
				reviews[i] = text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result := NewResult()
	for i, f := range files {
		result.Set(f.Path, reviews[i])
	}
	return result, nil
}

func reviewFile(ctx context.Context, i, n int, f gitctx.FileDiff, gen providers.Generator, content ContentSource, opts Options) (string, error) {
	if opts.Progress != nil {
		fmt.Fprintf(opts.Progress, "[%d/%d] reviewing %s (%s, +%d -%d)\n", i+1, n, f.Path, f.Operation, f.Added, f.Deleted)
	}

	data := PromptData{
		Path:      f.Path,
		OldPath:   f.OldPath,
		Operation: string(f.Operation),
		Language:  detectLanguage(f.Path),
		Source:    opts.Source,
		Target:    opts.Target,
		Diff:      opts.Redact.Apply(f.Path, f.Text),
	}

	if opts.IncludeContent && content != nil && f.Operation != gitctx.OpDeleted && !f.IsBinary {
		text, err := content.FileContent(ctx, opts.Source, f.Path)
		if err != nil {
			return "", fmt.Errorf("reading %s at %s: %w", f.Path, opts.Source, err)
		}
		data.Content = opts.Redact.Apply(f.Path, truncate(text, opts.MaxContentBytes))
	}

	prompt, err := opts.Template.Render(data)
	if err != nil {
		return "", err
	}

	resp, err := gen.Generate(ctx, providers.GenerateRequest{
		System: opts.System,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("reviewing %s: %w", f.Path, err)
	}
	return resp.Content, nil
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMarker
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
