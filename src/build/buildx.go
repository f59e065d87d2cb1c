package build

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

func init() {
	Register("buildx", func(opts Options) (Builder, error) { return NewBuildx(opts), nil })
}

// Buildx wraps docker buildx commands.
type Buildx struct {
	Binary string // defaults to "docker"
	opts   Options
}

// NewBuildx creates a Buildx runner.
func NewBuildx(opts Options) *Buildx {
	return &Buildx{Binary: "docker", opts: opts}
}

func (bx *Buildx) Name() string { return "buildx" }

// Build runs docker buildx build --load for a single target.
func (bx *Buildx) Build(ctx context.Context, t Target) (*StepResult, error) {
	start := time.Now()
	result := &StepResult{Target: t}

	args := bx.buildArgs(t)

	if bx.opts.Verbose {
		fmt.Fprintf(bx.opts.Stderr, "exec: %s %s\n", bx.Binary, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, bx.Binary, args...)
	cmd.Stdout = bx.output(bx.opts.Stdout)
	cmd.Stderr = bx.output(bx.opts.Stderr)

	if err := cmd.Run(); err != nil {
		return failed(result, start, fmt.Errorf("docker buildx build: %w", err))
	}

	return succeeded(result, start)
}

// buildArgs constructs the docker buildx build argument list.
func (bx *Buildx) buildArgs(t Target) []string {
	args := []string{"buildx", "build", "--load"}

	args = append(args, "--file", filepath.Join(bx.opts.Context, bx.opts.Dockerfile))
	args = append(args, "--build-arg", fmt.Sprintf("%s=%s", DownloadArg, t.DownloadURL))

	// Sorted so the command line is stable.
	labels := Labels(t, bx.opts.Labels)
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, labels[k]))
	}

	args = append(args, "--tag", t.Tag)
	args = append(args, bx.opts.Context)
	return args
}

func (bx *Buildx) output(w io.Writer) io.Writer {
	if !bx.opts.Verbose || w == nil {
		return io.Discard
	}
	return w
}
