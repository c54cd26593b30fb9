package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/prreview/internal/config"
	"github.com/dshills/prreview/internal/providers"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Query the model service",
	}
	var endpoint string
	cmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Ollama endpoint (default http://localhost:11434)")

	var model string
	doctor := newModelsDoctorCmd(&endpoint, &model)
	doctor.Flags().StringVar(&model, "model", "", "Model to check (default llama3)")

	cmd.AddCommand(newModelsListCmd(&endpoint), doctor)
	return cmd
}

// loadProvider builds the configured generator, honouring --endpoint and
// --model when given.
func loadProvider(cmd *cobra.Command, endpoint, model string) (config.Config, providers.Generator, error) {
	overrides := map[string]string{}
	if cmd.Flags().Changed("endpoint") {
		overrides["endpoint"] = endpoint
	}
	if cmd.Flags().Changed("model") {
		overrides["model"] = model
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return config.Config{}, nil, usage(err)
	}
	gen, err := providers.New(cfg.Provider, providers.Options{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		return config.Config{}, nil, usage(err)
	}
	return cfg, gen, nil
}

func newModelsListCmd(endpoint *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models installed on the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gen, err := loadProvider(cmd, *endpoint, "")
			if err != nil {
				return err
			}
			lister, ok := gen.(providers.ModelLister)
			if !ok {
				return fmt.Errorf("provider %s cannot list models", gen.Name())
			}

			models, err := lister.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintf(out, "No models installed at %s\n", cfg.Endpoint)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\n", m.Name, formatSize(m.Size))
			}
			return tw.Flush()
		},
	}
}

func newModelsDoctorCmd(endpoint, model *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the service is reachable and the model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gen, err := loadProvider(cmd, *endpoint, *model)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			fmt.Fprintf(out, "Checking %s at %s...\n", gen.Name(), cfg.Endpoint)

			if lister, ok := gen.(providers.ModelLister); ok {
				models, err := lister.ListModels(ctx)
				if err != nil {
					return err
				}
				if !hasModel(models, cfg.Model) {
					fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: model %s is not installed; try `ollama pull %s`\n", cfg.Model, cfg.Model)
				}
			}

			resp, err := gen.Generate(ctx, providers.GenerateRequest{
				System: "Respond with exactly: ok",
				Prompt: "ping",
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "OK: %s answered (%d tokens)\n", cfg.Model, resp.TokensUsed)
			return nil
		},
	}
}

// hasModel reports whether name is installed. A name without a tag matches
// its ":latest" variant.
func hasModel(models []providers.ModelInfo, name string) bool {
	for _, m := range models {
		if m.Name == name {
			return true
		}
		if !strings.Contains(name, ":") && m.Name == name+":latest" {
			return true
		}
	}
	return false
}

func formatSize(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}
