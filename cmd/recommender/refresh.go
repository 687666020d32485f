package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/schemas"
	"github.com/jonathan/gift-recommender/internal/types"
)

// refreshOptions are the inputs of one refresh run.
type refreshOptions struct {
	Source       vaultSource
	PreviousPath string
	RejectIDs    []string
	Reason       string
	Occasion     string
	MilestoneID  string
	ConfigPath   string
	OutputPath   string
	Verbose      bool
	Save         bool
}

var refOpts refreshOptions

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Replace rejected recommendations with a new set",
	Long: `Rerun the pipeline after the user rejected recommendations from a previous result file.
Rejected candidates, and candidates resembling them for the given reason, are excluded.`,
	RunE: runRefresh,
}

func init() {
	addVaultFlags(refreshCmd, &refOpts.Source)
	refreshCmd.Flags().StringVar(&refOpts.PreviousPath, "previous", "", "Path to a previous result JSON file (required)")
	refreshCmd.Flags().StringSliceVar(&refOpts.RejectIDs, "reject", nil, "Candidate IDs to reject (default: all of the previous result)")
	refreshCmd.Flags().StringVar(&refOpts.Reason, "reason", "", "Rejection reason (too_expensive, too_cheap, not_their_style, already_have_similar, show_different)")
	refreshCmd.Flags().StringVar(&refOpts.Occasion, "occasion", "", "Occasion type (just_because, minor_occasion, major_milestone)")
	refreshCmd.Flags().StringVar(&refOpts.MilestoneID, "milestone", "", "Milestone ID to plan for")
	refreshCmd.Flags().StringVar(&refOpts.ConfigPath, "config", "", "Path to a JSON or YAML config file")
	refreshCmd.Flags().StringVarP(&refOpts.OutputPath, "output", "o", "", "Write the result JSON to this file instead of stdout")
	refreshCmd.Flags().BoolVarP(&refOpts.Verbose, "verbose", "v", false, "Print stage progress and a formatted summary")
	refreshCmd.Flags().BoolVar(&refOpts.Save, "save", false, "Persist the recommendations (database vaults only)")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return refresh(ctx, refOpts, cmd.OutOrStdout())
}

func refresh(ctx context.Context, opts refreshOptions, out io.Writer) error {
	if opts.PreviousPath == "" {
		return fmt.Errorf("--previous is required")
	}
	if opts.Reason == "" {
		return fmt.Errorf("--reason is required")
	}
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

	previous, err := loadPreviousResult(opts.PreviousPath, rt)
	if err != nil {
		return err
	}
	rejected, err := selectRejected(previous.Items, opts.RejectIDs)
	if err != nil {
		return err
	}

	vault, err := opts.Source.load(ctx, rt)
	if err != nil {
		return err
	}

	if verbose {
		_, _ = fmt.Fprintf(out, "Refreshing %d recommendation(s) for vault %s (%s)\n", len(rejected), vault.ID, opts.Reason)
	}
	result, err := rt.pipeline.Refresh(ctx, vault, pipeline.RefreshRequest{
		Rejected:    rejected,
		Reason:      types.RejectionReason(opts.Reason),
		Occasion:    types.OccasionType(opts.Occasion),
		MilestoneID: milestoneID,
	})
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
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

// loadPreviousResult reads a result file written by generate or refresh.
func loadPreviousResult(path string, rt *runtime) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read previous result %s: %w", path, err)
	}
	warnOnSchema(schemas.ResultSchema, data, path, rt.logger)

	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse previous result JSON: %w", err)
	}
	return &result, nil
}

// selectRejected returns the items named by ids, or all items when ids is empty.
func selectRejected(items []types.Candidate, ids []string) ([]types.Candidate, error) {
	if len(ids) == 0 {
		return items, nil
	}
	byID := make(map[string]types.Candidate, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	rejected := make([]types.Candidate, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("candidate %q is not in the previous result", id)
		}
		rejected = append(rejected, item)
	}
	return rejected, nil
}
