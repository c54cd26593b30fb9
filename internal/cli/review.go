package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/prreview/internal/config"
	"github.com/dshills/prreview/internal/gitctx"
	"github.com/dshills/prreview/internal/output"
	"github.com/dshills/prreview/internal/providers"
	"github.com/dshills/prreview/internal/redact"
	"github.com/dshills/prreview/internal/review"
)

// reviewOptions holds the review flags. Flags that map to a config key are
// only applied when set on the command line.
type reviewOptions struct {
	repo         string
	endpoint     string
	model        string
	timeout      int
	workers      int
	template     string
	noContent    bool
	mergeBase    bool
	contextLines int
	paths        string
	exclude      string
	format       string
	out          string
	noRedact     bool
	verbose      bool
}

func (o *reviewOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.repo, "repo", "", "Path to the git repository (default \".\")")
	f.StringVar(&o.endpoint, "endpoint", "", "Ollama endpoint (default http://localhost:11434)")
	f.StringVar(&o.model, "model", "", "Model name (default llama3)")
	f.IntVar(&o.timeout, "timeout", 0, "Per-request timeout in seconds, 0 disables (default 300)")
	f.IntVar(&o.workers, "workers", 0, "Number of files reviewed concurrently (default 1)")
	f.StringVar(&o.template, "template", "", "Prompt template file (text/template)")
	f.BoolVar(&o.noContent, "no-content", false, "Send only the diff, not the full file content")
	f.BoolVar(&o.mergeBase, "merge-base", false, "Diff source against its merge base with target")
	f.IntVar(&o.contextLines, "context-lines", -1, "Number of context lines in diff, -1 keeps git's default")
	f.StringVar(&o.paths, "paths", "", "Include file path globs (comma-separated)")
	f.StringVar(&o.exclude, "exclude", "", "Exclude file path globs (comma-separated)")
	f.StringVar(&o.format, "format", "", "Output format (json, text, markdown)")
	f.StringVar(&o.out, "out", "", "Output file path (default: stdout)")
	f.BoolVar(&o.noRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Print progress to stderr")
}

// overrides returns the config keys for the flags present on the command line.
func (o *reviewOptions) overrides(flags *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	set := func(flag, key, value string) {
		if flags.Changed(flag) {
			m[key] = value
		}
	}
	set("repo", "repoPath", o.repo)
	set("endpoint", "endpoint", o.endpoint)
	set("model", "model", o.model)
	set("timeout", "timeoutSeconds", strconv.Itoa(o.timeout))
	set("workers", "workers", strconv.Itoa(o.workers))
	set("template", "template", o.template)
	set("context-lines", "contextLines", strconv.Itoa(o.contextLines))
	set("paths", "include", o.paths)
	set("exclude", "exclude", o.exclude)
	set("format", "format", o.format)
	if flags.Changed("no-content") {
		m["includeContent"] = strconv.FormatBool(!o.noContent)
	}
	if flags.Changed("no-redact") {
		m["privacy.redactSecrets"] = strconv.FormatBool(!o.noRedact)
	}
	return m
}

func runReview(cmd *cobra.Command, o *reviewOptions, source, target string) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load(o.overrides(cmd.Flags()))
	if err != nil {
		return usage(err)
	}

	tmpl := review.DefaultTemplate()
	if cfg.Template != "" {
		if tmpl, err = review.LoadTemplate(cfg.Template); err != nil {
			return usage(err)
		}
	}

	gen, err := providers.New(cfg.Provider, providers.Options{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		return usage(err)
	}

	if !cfg.Privacy.RedactSecrets {
		fmt.Fprintln(stderr, "WARNING: secret redaction is disabled")
	}

	repo, err := gitctx.Open(ctx, cfg.RepoPath)
	if err != nil {
		return err
	}
	diffOpts := gitctx.DiffOptions{
		MergeBase: o.mergeBase,
		Include:   cfg.Include,
		Exclude:   cfg.Exclude,
	}
	if cfg.ContextLines >= 0 {
		diffOpts.ContextLines = &cfg.ContextLines
	}
	files, err := repo.Diff(ctx, source, target, diffOpts)
	if err != nil {
		return err
	}

	var progress io.Writer
	if o.verbose {
		progress = stderr
		fmt.Fprintf(stderr, "%d changed file(s) between %s and %s, model %s at %s\n",
			len(files), target, source, cfg.Model, cfg.Endpoint)
	}

	result, err := review.Run(ctx, files, gen, repo, review.Options{
		Source:          source,
		Target:          target,
		Template:        tmpl,
		Workers:         cfg.Workers,
		IncludeContent:  cfg.IncludeContent,
		MaxContentBytes: cfg.MaxContentBytes,
		Redact: redact.Policy{
			Enabled: cfg.Privacy.RedactSecrets,
			Paths:   cfg.Privacy.RedactPaths,
		},
		Progress: progress,
	})
	if err != nil {
		return err
	}

	return output.WriteResult(result, cfg.Format, o.out, cmd.OutOrStdout())
}
