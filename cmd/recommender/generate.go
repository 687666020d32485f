package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/gift-recommender/internal/types"
)

// generateOptions are the inputs of one generate run.
type generateOptions struct {
	Source      vaultSource
	Occasion    string
	MilestoneID string
	ConfigPath  string
	OutputPath  string
	Verbose     bool
	Save        bool
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate three recommendations for a vault",
	Long: `Run the recommendation pipeline for a vault read from a JSON file (--vault) or from
the database (--vault-id with --user-id) and print the result as JSON.`,
	RunE: runGenerate,
}

func init() {
	addVaultFlags(generateCmd, &genOpts.Source)
	generateCmd.Flags().StringVar(&genOpts.Occasion, "occasion", "", "Occasion type (just_because, minor_occasion, major_milestone)")
	generateCmd.Flags().StringVar(&genOpts.MilestoneID, "milestone", "", "Milestone ID to plan for")
	generateCmd.Flags().StringVar(&genOpts.ConfigPath, "config", "", "Path to a JSON or YAML config file")
	generateCmd.Flags().StringVarP(&genOpts.OutputPath, "output", "o", "", "Write the result JSON to this file instead of stdout")
	generateCmd.Flags().BoolVarP(&genOpts.Verbose, "verbose", "v", false, "Print stage progress and a formatted summary")
	generateCmd.Flags().BoolVar(&genOpts.Save, "save", false, "Persist the recommendations (database vaults only)")
	rootCmd.AddCommand(generateCmd)
}

// addVaultFlags binds the flags that select a vault.
func addVaultFlags(cmd *cobra.Command, src *vaultSource) {
	cmd.Flags().StringVar(&src.File, "vault", "", "Path to a vault JSON file")
	cmd.Flags().StringVar(&src.VaultID, "vault-id", "", "Vault ID to load from the database")
	cmd.Flags().StringVar(&src.UserID, "user-id", "", "Owner of the vault (required with --vault-id)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return generate(ctx, genOpts, cmd.OutOrStdout())
}

func generate(ctx context.Context, opts generateOptions, out io.Writer) error {
	if err := opts.Source.validate(); err != nil {
		return err
	}
	milestoneID, err := parseMilestone(opts.MilestoneID)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	verbose := opts.Verbose || cfg.Verbose

	rtOpts := runtimeOptions{NeedDB: opts.Source.needsDB()}
	if verbose {
		rtOpts.OnProgress = progressPrinter(out)
	}
	rt, err := newRuntime(ctx, cfg, rtOpts)
	if err != nil {
		return err
	}
	defer rt.Close()

	vault, err := opts.Source.load(ctx, rt)
	if err != nil {
		return err
	}

	if verbose {
		_, _ = fmt.Fprintf(out, "Generating recommendations for vault %s\n", vault.ID)
	}
	result, err := rt.pipeline.Generate(ctx, vault, types.OccasionType(opts.Occasion), milestoneID)
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	if verbose {
		printSummary(out, result)
	}
	if opts.Save {
		if err := saveResult(ctx, rt, vault.ID, result, out); err != nil {
			return err
		}
	}
	return writeResult(rt, result, opts.OutputPath, out)
}
