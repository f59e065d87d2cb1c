package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sofmeright/nightlyfreight/src/artifact"
	"github.com/sofmeright/nightlyfreight/src/build"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <channel> [major]",
	Short: "Print the download URL of the newest build per major line",
	Long: `Resolve one channel (nightly, rc or v8-canary) and print the download URL
of its newest build for every major line, or only for the given major.

Nothing is built or pushed. Every major at or above the channel minimum is
listed, including v8-canary lines below the highest.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&listingFile, "listing-file", "", "replay listings from a YAML file instead of fetching")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	spec, err := cfg.Channels.LookupChannel(args[0])
	if err != nil {
		return err
	}
	spec.HighestOnly = false

	want := -1
	if len(args) == 2 {
		want, err = strconv.Atoi(args[1])
		if err != nil || want < 0 {
			return fmt.Errorf("invalid major %q", args[1])
		}
	}

	src, err := newSource()
	if err != nil {
		return err
	}
	hrefs, err := src.Hrefs(context.Background(), spec.BaseURL)
	if err != nil {
		return err
	}

	sel := artifact.Select(hrefs, spec.Rule, spec.MinimumMajor)
	for _, r := range sel.Rejected {
		log.WithError(r.Err).Debug("skipping listing entry")
	}

	out := cmd.OutOrStdout()
	found := false
	for _, t := range build.ResolveTargets(spec, sel, build.TagOptions{}) {
		if want >= 0 && t.Major != want {
			continue
		}
		found = true
		if want >= 0 {
			fmt.Fprintln(out, t.DownloadURL)
		} else {
			fmt.Fprintf(out, "v%d\t%s\n", t.Major, t.DownloadURL)
		}
	}
	if !found {
		if want >= 0 {
			return fmt.Errorf("%s: no build found for major %d", spec.Name, want)
		}
		return fmt.Errorf("%s: no builds found", spec.Name)
	}
	return nil
}
