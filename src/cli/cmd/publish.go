package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/nightlyfreight/src/build"
	"github.com/sofmeright/nightlyfreight/src/config"
	"github.com/sofmeright/nightlyfreight/src/engine"
	"github.com/sofmeright/nightlyfreight/src/metrics"
	"github.com/sofmeright/nightlyfreight/src/output"
	"github.com/sofmeright/nightlyfreight/src/pipeline"
	"github.com/sofmeright/nightlyfreight/src/publish"
	"github.com/sofmeright/nightlyfreight/src/version"
)

var (
	pubFloatLatest bool
	pubDryRun      bool
	pubEngine      string
	pubContext     string
)

var publishCmd = &cobra.Command{
	Use:     "publish",
	Aliases: []string{"run"},
	Short:   "Resolve, build and push images for every channel",
	Long: `Resolve the newest build per major line on the v8-canary, nightly and rc
channels, build one image per line and push all tags.

The canary image is built first and alone. Nightly and rc then build
concurrently. Pushes start only after every build succeeded and run one at a
time: canary, nightly (ascending), rc (ascending). The first failure stops the
run.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&pubFloatLatest, "float-latest", false, "also tag the highest nightly major as latest")
	publishCmd.Flags().BoolVar(&pubDryRun, "dry-run", false, "show the plan without building or pushing")
	publishCmd.Flags().StringVar(&pubEngine, "engine", "", "build engine: api or buildx (overrides build.engine)")
	publishCmd.Flags().StringVar(&pubContext, "context", "", "build directory (overrides build.context)")
	publishCmd.Flags().StringVar(&listingFile, "listing-file", "", "replay listings from a YAML file instead of fetching")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("float-latest") {
		cfg.FloatLatest = pubFloatLatest
	}
	if pubEngine != "" {
		cfg.Build.Engine = pubEngine
	}
	if pubContext != "" {
		cfg.Build.Context = pubContext
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	w := os.Stdout
	color := output.UseColor()

	output.PrintIdentity(w, output.Identity{Version: version.Version, Commit: version.Commit, Date: version.BuildDate}, color)
	output.ContextBlock(w, append([]output.KV{
		{Key: "namespace", Value: cfg.Registry.Namespace},
		{Key: "repository", Value: cfg.Registry.Repository},
		{Key: "engine", Value: cfg.Build.Engine},
		{Key: "publish", Value: cfg.Publish.Mode},
	}, output.CIContext()...))

	src, err := newSource()
	if err != nil {
		return err
	}

	console := output.NewConsole()
	orch := &pipeline.Orchestrator{
		Source:   src,
		Channels: cfg.Channels,
		Tags:     tagOptions(),
		Observer: console,
		Logger:   log,
		DryRun:   pubDryRun,
	}

	if pubDryRun {
		report, err := orch.Run(ctx)
		if err != nil {
			return err
		}
		printPlan(report, color)
		return nil
	}

	if err := build.CheckContext(cfg.Build.Context, cfg.Build.Dockerfile); err != nil {
		return err
	}

	// One engine client for the whole run, shared by builder and publisher.
	var client engine.API
	if cfg.Build.Engine == "api" || cfg.Publish.Mode == "api" {
		client, err = engine.NewClient()
		if err != nil {
			return fmt.Errorf("connecting to container engine: %w", err)
		}
		defer client.Close()
	}

	builder, err := build.Get(cfg.Build.Engine, build.Options{
		Context:    cfg.Build.Context,
		Dockerfile: cfg.Build.Dockerfile,
		Client:     client,
		Labels:     build.BaseLabels(cfg.Build.Context, time.Now()),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}

	auth := publish.AuthFromEnv(cfg.Registry.Credentials, cfg.Registry.Address)
	publisher, err := publish.New(cfg.Publish.Mode, client, auth, pushOutput(), os.Stderr)
	if err != nil {
		return err
	}

	orch.Builder = builder
	orch.Publisher = publisher

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled() {
		recorder = metrics.NewRecorder()
		orch.Observer = pipeline.Observers{console, recorder}
	}

	_, runErr := orch.Run(ctx)

	if recorder != nil {
		if err := recorder.Push(ctx, cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
			log.WithError(err).Warn("metrics not pushed")
		}
	}
	return runErr
}

func tagOptions() build.TagOptions {
	return build.TagOptions{
		Namespace:   cfg.Registry.Namespace,
		Repository:  cfg.Registry.Repository,
		FloatLatest: cfg.FloatLatest,
	}
}

// pushOutput shows push progress only with --verbose.
func pushOutput() io.Writer {
	if verbose {
		return os.Stdout
	}
	return io.Discard
}

func printPlan(report *pipeline.Report, color bool) {
	sec := output.NewSection(os.Stdout, "Plan", report.Duration, color)
	if len(report.Planned) == 0 {
		sec.Row("%s", output.Dimmed("nothing to build", color))
	}
	for _, t := range report.Planned {
		sec.Row("%-10s %-40s %s", t.Channel, t.Tag, output.Dimmed(filepath.Base(t.DownloadURL), color))
	}
	sec.Close()
}
