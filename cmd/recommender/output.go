package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/observability"
	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/schemas"
)

// progressPrinter returns a callback that reports each completed stage on out.
func progressPrinter(out io.Writer) pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		_, _ = fmt.Fprintf(out, "  ✓ %-9s %s (%d)\n", e.Stage, e.Message, e.Count)
	}
}

// printSummary prints the boxed verbose view of a finished run.
func printSummary(out io.Writer, result *pipeline.Result) {
	p := observability.NewPrinter(out)
	if result.State != nil {
		p.PrintProfile(&result.State.Profile, result.State.Budget)
		p.PrintPool("Scored Pool", result.State.FilteredPool)
	}
	p.PrintHints(result.Hints)
	p.PrintRecommendations(result.Items, result.Error)
}

// writeResult writes the result as indented JSON to path, or to out when path is empty.
func writeResult(rt *runtime, result *pipeline.Result, path string, out io.Writer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	warnOnSchema(schemas.ResultSchema, data, "result", rt.logger)

	if path == "" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write result to %s: %w", path, err)
	}
	return nil
}

// saveResult persists the returned items when the vault came from the database.
func saveResult(ctx context.Context, rt *runtime, vaultID uuid.UUID, result *pipeline.Result, out io.Writer) error {
	if rt.db == nil || len(result.Items) == 0 {
		return nil
	}
	var milestoneID *uuid.UUID
	if result.State != nil && result.State.Milestone != nil {
		id := result.State.Milestone.ID
		milestoneID = &id
	}

	stored, err := rt.db.SaveRecommendations(ctx, vaultID, milestoneID, result.Items)
	if err != nil {
		return fmt.Errorf("failed to save recommendations: %w", err)
	}
	for _, rec := range stored {
		_, _ = fmt.Fprintf(out, "saved %s  %s\n", rec.ID, rec.Candidate.Title)
	}
	return nil
}
