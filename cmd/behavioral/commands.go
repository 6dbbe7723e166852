package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/lib/config"
	"github.com/pthm/behavioral/lib/generator"
	"github.com/pthm/behavioral/lib/stamp"
)

// app holds the global flags shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
}

// load reads the configuration, applies flag overrides and builds the
// logger, which writes to the command's stderr.
func (a *app) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// runtimeFor builds a runtime whose registry holds the manifest's behaviors.
func runtimeFor(cfg *config.Config, logger *slog.Logger) (*behavioral.Runtime, error) {
	reg, err := cfg.Registry(logger)
	if err != nil {
		return nil, err
	}
	opts := []behavioral.Option{behavioral.WithLogger(logger)}
	if key := cfg.PayloadKeyBytes(); key != nil {
		opts = append(opts, behavioral.WithPayloadKey(key))
	}
	if cfg.SealPayloads {
		opts = append(opts, behavioral.WithPayloadMode(behavioral.SealedPayloads))
	}
	return behavioral.New(reg, opts...), nil
}

func generateCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate [packages]",
		Short: "Generate attribute code for schema structs (*_bh.go)",
		Long: `Generate writes a *_bh.go file next to every Go file declaring structs
with attr tags. The generated AttributeKeys and ReadAttributes methods
replace reflection at runtime.

  behavioral generate ./...
  behavioral generate ./behaviors/reveal
  behavioral generate --dry-run ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			return generator.New(generator.Options{DryRun: dryRun, Logger: logger}).Generate(patterns(args)...)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be generated without writing files")
	return cmd
}

func cleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [packages]",
		Short: "Remove generated files (*_bh.go)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			return generator.New(generator.Options{Logger: logger}).Clean(patterns(args)...)
		},
	}
}

func stampCmd(a *app) *cobra.Command {
	var (
		watch  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "stamp [root]",
		Short: "Set is attributes on behavior elements in static HTML",
		Long: `Stamp applies the auto-loader to every HTML file selected by the
stamp.include and stamp.exclude patterns, writing files whose markup
changed. Behaviors listed in the config manifest are known; any other
name is stamped with a warning.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Stamp.Root = args[0]
			}
			rt, err := runtimeFor(cfg, logger)
			if err != nil {
				return err
			}

			s := stamp.New(rt, stamp.Options{
				Root:    cfg.Stamp.Root,
				Include: cfg.Stamp.Include,
				Exclude: cfg.Stamp.Exclude,
				DryRun:  dryRun,
				Logger:  logger,
			})

			results, err := s.Run()
			report(cmd, results)
			if err != nil || !watch {
				return err
			}

			w, err := s.Watch(cfg.Stamp.Debounce)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("watching", "root", cfg.Stamp.Root, "debounce", cfg.Stamp.Debounce)
			err = w.Run(ctx, func(r stamp.Result) { report(cmd, []stamp.Result{r}) })
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-stamp files when they change")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing files")
	return cmd
}

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the behavior manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			defs, err := cfg.Definitions()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, def := range defs {
				fmt.Fprintf(out, "ok  %s", def.Name())
				if attrs := def.AttributeNames(); len(attrs) > 0 {
					fmt.Fprintf(out, "  attributes: %s", strings.Join(attrs, " "))
				}
				if cmds := def.CommandNames(); len(cmds) > 0 {
					fmt.Fprintf(out, "  commands: %s", strings.Join(cmds, " "))
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%d behaviors\n", len(defs))
			return nil
		},
	}
}

func report(cmd *cobra.Command, results []stamp.Result) {
	for _, r := range results {
		if r.Elements == 0 {
			continue
		}
		verb := "stamped"
		if !r.Written {
			verb = "would stamp"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d elements)\n", verb, r.Path, r.Elements)
	}
}

func patterns(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}
	return args
}
