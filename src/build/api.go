package build

import (
	"context"
	"fmt"
	"io"
	"time"

	buildtypes "github.com/docker/docker/api/types/build"
	archive "github.com/moby/go-archive"

	"github.com/sofmeright/nightlyfreight/src/engine"
)

func init() {
	Register("api", func(opts Options) (Builder, error) { return NewAPIBuilder(opts) })
}

// APIBuilder builds images through the engine API socket.
type APIBuilder struct {
	opts Options
}

// NewAPIBuilder creates a builder around opts.Client.
func NewAPIBuilder(opts Options) (*APIBuilder, error) {
	if opts.Client == nil {
		return nil, engine.ErrClientNil
	}
	return &APIBuilder{opts: opts}, nil
}

func (b *APIBuilder) Name() string { return "api" }

// Build tars the build directory, sends it with DL_LINK set to the target's
// download URL and drains the progress stream. The build is done only once
// the stream ends without an error message.
func (b *APIBuilder) Build(ctx context.Context, t Target) (*StepResult, error) {
	start := time.Now()
	result := &StepResult{Target: t}

	buildCtx, err := archive.TarWithOptions(b.opts.Context, &archive.TarOptions{
		ExcludePatterns: []string{".git"},
	})
	if err != nil {
		return failed(result, start, fmt.Errorf("archiving build context %s: %w", b.opts.Context, err))
	}
	defer buildCtx.Close()

	dl := t.DownloadURL
	resp, err := b.opts.Client.ImageBuild(ctx, buildCtx, buildtypes.ImageBuildOptions{
		Dockerfile:  b.opts.Dockerfile,
		Tags:        []string{t.Tag},
		BuildArgs:   map[string]*string{DownloadArg: &dl},
		Labels:      Labels(t, b.opts.Labels),
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return failed(result, start, err)
	}

	var out io.Writer = io.Discard
	if b.opts.Verbose {
		out = b.opts.Stderr
	}
	if err := engine.Drain(resp.Body, out); err != nil {
		return failed(result, start, err)
	}

	return succeeded(result, start)
}
