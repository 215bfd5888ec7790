package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ageline"
)

// collectSubject resolves facts (cached unless forced) and runs acquisition.
// A recency failure is surfaced after the manifest has been persisted, so the
// operator can inspect how close the run came.
func collectSubject(ctx context.Context, cfg *ageline.Config, name string, force bool) (*ageline.ImageManifest, error) {
	facts, err := cfg.ResolveFacts(ctx, name, false)
	if err != nil {
		return nil, err
	}

	manifest, err := cfg.Collect(ctx, ageline.Query{
		Name:       facts.Name,
		BirthYear:  facts.BirthYear,
		TargetYear: facts.TargetYearEnd,
	}, force)
	if err != nil {
		var recency *ageline.RecencyError
		if errors.As(err, &recency) {
			return manifest, fmt.Errorf("manifest saved at %s, but coverage is short: %w",
				cfg.ManifestPath(name), err)
		}
		return nil, err
	}

	fmt.Printf("%s: %d candidates, %d verified, years %v\n",
		name, len(manifest.Candidates), manifest.VerifiedCount, manifest.VerifiedYears)
	return manifest, nil
}

// selectSubjectAnchors loads the persisted manifest and writes the anchor
// timeline. Returns the timeline path.
func selectSubjectAnchors(ctx context.Context, cfg *ageline.Config, name string) (string, error) {
	facts, err := cfg.ResolveFacts(ctx, name, false)
	if err != nil {
		return "", err
	}

	manifest, err := ageline.LoadManifest(cfg.ManifestPath(name))
	if err != nil {
		return "", fmt.Errorf("no manifest for %s (run collect first): %w", name, err)
	}

	anchors, err := ageline.SelectAnchors(manifest, facts.BirthYear)
	if err != nil {
		return "", err
	}
	for _, a := range anchors {
		slog.Info("ageline: anchor selected", "year", a.Year, "age", a.Age, "source", a.Source)
	}

	return cfg.SaveTimeline(name, anchors)
}

// runPipeline performs all steps for one subject, appending a work log record
// after each completed step. The subject is marked completed only after the
// final step, so interrupted runs stay eligible.
func runPipeline(ctx context.Context, cfg *ageline.Config, name string, force bool) error {
	wl, err := ageline.OpenWorkLog(cfg.WorkLogPath())
	if err != nil {
		return err
	}
	defer wl.Close()

	runID := ageline.NewRunID()

	if _, err := cfg.ResolveFacts(ctx, name, force); err != nil {
		return err
	}
	if err := wl.Append(ctx, runID, name, ageline.StepFacts); err != nil {
		return err
	}

	if _, err := collectSubject(ctx, cfg, name, force); err != nil {
		return err
	}
	if err := wl.Append(ctx, runID, name, ageline.StepImages); err != nil {
		return err
	}

	path, err := selectSubjectAnchors(ctx, cfg, name)
	if err != nil {
		return err
	}
	if err := wl.Append(ctx, runID, name, ageline.StepAnchors); err != nil {
		return err
	}

	fmt.Printf("%s: pipeline complete, timeline at %s\n", name, path)
	return wl.Append(ctx, runID, name, ageline.StepCompleted)
}
