package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ageline"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var forceFlag bool

	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "ageline",
		Short:         "Assemble dated photo timelines of public figures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(configFlag, cmd.Flags().Changed("config"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "ageline.toml", "Settings file path")
	rootCmd.PersistentFlags().BoolVar(&forceFlag, "force", false, "Ignore cached facts and manifests")

	rootCmd.AddCommand(newResolveCommand(app, &forceFlag))
	rootCmd.AddCommand(newCollectCommand(app, &forceFlag))
	rootCmd.AddCommand(newAnchorsCommand(app))
	rootCmd.AddCommand(newRunCommand(app, &forceFlag))
	rootCmd.AddCommand(newStatusCommand(app))

	return rootCmd
}

// appContext carries settings and the library config across commands.
type appContext struct {
	settings *Settings
	cfg      *ageline.Config
}

func (a *appContext) init(configPath string, explicit bool) error {
	settings, err := loadSettings(configPath, explicit)
	if err != nil {
		return err
	}
	a.settings = settings
	a.cfg = settings.libraryConfig()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	return nil
}

// subjectFor picks the subject to operate on: the positional argument when
// given, otherwise the next unfinished entry in the configured queue.
func (a *appContext) subjectFor(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	wl, err := ageline.OpenWorkLog(a.cfg.WorkLogPath())
	if err != nil {
		return "", err
	}
	defer wl.Close()

	name, err := wl.NextSubject(ctx, a.settings.Queue)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("queue exhausted: every subject is completed (pass a name to override)")
	}
	return name, nil
}

func newResolveCommand(app *appContext, force *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [name]",
		Short: "Resolve birth facts for a subject",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.subjectFor(cmd.Context(), args)
			if err != nil {
				return err
			}
			facts, err := app.cfg.ResolveFacts(cmd.Context(), name, *force)
			if err != nil {
				return err
			}
			fmt.Printf("%s: born %s, target year %d (%s)\n",
				facts.Name, facts.BirthDate, facts.TargetYearEnd, facts.WikidataID)
			return nil
		},
	}
}

func newCollectCommand(app *appContext, force *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "collect [name]",
		Short: "Gather, date-verify, and persist image candidates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.subjectFor(cmd.Context(), args)
			if err != nil {
				return err
			}
			_, err = collectSubject(cmd.Context(), app.cfg, name, *force)
			return err
		},
	}
}

func newAnchorsCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "anchors [name]",
		Short: "Select and persist the anchor timeline from a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.subjectFor(cmd.Context(), args)
			if err != nil {
				return err
			}
			path, err := selectSubjectAnchors(cmd.Context(), app.cfg, name)
			if err != nil {
				return err
			}
			fmt.Printf("anchor timeline written to %s\n", path)
			return nil
		},
	}
}

func newRunCommand(app *appContext, force *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run [name]",
		Short: "Run the full pipeline for the next queued subject",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unlock, err := acquireRunLock(app.cfg)
			if err != nil {
				return err
			}
			defer unlock()

			name, err := app.subjectFor(cmd.Context(), args)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), app.cfg, name, *force)
		},
	}
}

func newStatusCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Show pipeline history for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := ageline.OpenWorkLog(app.cfg.WorkLogPath())
			if err != nil {
				return err
			}
			defer wl.Close()

			entries, err := wl.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("no history for %s\n", args[0])
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %-10s  run %s\n",
					e.LoggedAt.Format("2006-01-02 15:04:05"), e.Step, e.RunID)
			}
			return nil
		},
	}
}

// acquireRunLock takes the single-run file lock. Runs for different subjects
// share state through the work log, so only one runs at a time.
func acquireRunLock(cfg *ageline.Config) (func(), error) {
	dataDir := filepath.Dir(cfg.WorkLogPath())
	lockPath := filepath.Join(dataDir, "ageline.lock")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another run is active (lock held at %s)", lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}
