// Package pipeline drives a full run: resolve and build the v8-canary image
// first, then resolve and build nightly and rc concurrently, then push every
// tag one at a time in a fixed order. The first fatal error stops the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sofmeright/nightlyfreight/src/artifact"
	"github.com/sofmeright/nightlyfreight/src/build"
	"github.com/sofmeright/nightlyfreight/src/config"
	"github.com/sofmeright/nightlyfreight/src/listing"
	"github.com/sofmeright/nightlyfreight/src/publish"
)

// ErrNoTargets is returned when a required channel lists entries but none
// of them yields a build target.
var ErrNoTargets = errors.New("no build targets")

// Orchestrator wires the collaborators of a run. All fields except Observer
// and Logger are required; DryRun only needs Source.
type Orchestrator struct {
	Source    listing.Source
	Builder   build.Builder
	Publisher publish.Publisher
	Channels  config.ChannelsConfig
	Tags      build.TagOptions
	Observer  Observer
	Logger    logrus.FieldLogger

	// DryRun resolves every channel and returns the plan without building
	// or publishing.
	DryRun bool

	mu     sync.Mutex
	report *Report
}

// Report describes what a run did. On failure it holds whatever prefix of
// the plan completed before the error.
type Report struct {
	States    []State
	Planned   []build.Target // publish order
	Built     []string
	Published []string
	Rejected  int   // malformed listing entries skipped
	FailedIn  State // Idle unless the run failed
	Duration  time.Duration
}

// Run executes the whole pipeline.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.Logger = l
	}
	o.report = &Report{}
	o.transition(Idle)

	start := time.Now()
	err := o.run(ctx)
	o.report.Duration = time.Since(start)

	if err != nil {
		o.mu.Lock()
		o.report.FailedIn = o.current()
		o.mu.Unlock()
		o.transition(Failed)
		o.Logger.WithError(err).WithField("state", o.report.FailedIn.String()).Error("run failed")
	} else {
		o.transition(Done)
	}

	o.Observer.Finished(o.report, err)
	return o.report, err
}

func (o *Orchestrator) run(ctx context.Context) error {
	canarySpec := o.Channels.Spec(config.ChannelCanary)
	nightlySpec := o.Channels.Spec(config.ChannelNightly)
	rcSpec := o.Channels.Spec(config.ChannelRC)

	if o.DryRun {
		return o.plan(ctx, canarySpec, nightlySpec, rcSpec)
	}

	// Canary is built alone first: it warms the base layer the other
	// builds reuse.
	o.transition(ResolvingCanary)
	canary, err := o.resolve(ctx, canarySpec)
	if err != nil {
		return err
	}

	o.transition(BuildingCanary)
	if err := o.buildAll(ctx, ctx, canary); err != nil {
		return err
	}

	o.transition(ResolvingChannels)
	var nightly, rc []build.Target
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nightly, err = o.resolveAndBuild(ctx, gctx, nightlySpec)
		return err
	})
	g.Go(func() error {
		var err error
		rc, err = o.resolveAndBuild(ctx, gctx, rcSpec)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	plan := publishOrder(canary, nightly, rc)
	o.mu.Lock()
	o.report.Planned = plan
	o.mu.Unlock()

	o.transition(Publishing)
	for _, t := range plan {
		if err := o.publish(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// plan resolves all channels without side effects.
func (o *Orchestrator) plan(ctx context.Context, canarySpec, nightlySpec, rcSpec config.ChannelSpec) error {
	o.transition(ResolvingCanary)
	canary, err := o.resolve(ctx, canarySpec)
	if err != nil {
		return err
	}

	o.transition(ResolvingChannels)
	var nightly, rc []build.Target
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nightly, err = o.resolve(gctx, nightlySpec)
		return err
	})
	g.Go(func() error {
		var err error
		rc, err = o.resolve(gctx, rcSpec)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	o.mu.Lock()
	o.report.Planned = publishOrder(canary, nightly, rc)
	o.mu.Unlock()
	return nil
}

// resolveAndBuild runs one of the concurrent channels. Builds use ctx so an
// in-flight build is awaited, while stop (the errgroup context) prevents new
// builds once the sibling channel has failed.
func (o *Orchestrator) resolveAndBuild(ctx, stop context.Context, spec config.ChannelSpec) ([]build.Target, error) {
	targets, err := o.resolve(stop, spec)
	if err != nil {
		return nil, err
	}
	o.transition(BuildingChannels)
	if err := o.buildAll(ctx, stop, targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// resolve fetches a channel listing and turns it into build targets.
func (o *Orchestrator) resolve(ctx context.Context, spec config.ChannelSpec) ([]build.Target, error) {
	log := o.Logger.WithField("channel", spec.Name)

	hrefs, err := o.Source.Hrefs(ctx, spec.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", spec.Name, err)
	}

	sel := artifact.Select(hrefs, spec.Rule, spec.MinimumMajor)
	for _, r := range sel.Rejected {
		log.WithError(r.Err).Debug("skipping listing entry")
	}
	targets := build.ResolveTargets(spec, sel, o.Tags)

	o.mu.Lock()
	o.report.Rejected += len(sel.Rejected)
	o.mu.Unlock()

	log.WithField("majors", sel.Majors()).Debugf("resolved %d target(s) from %d entries", len(targets), len(hrefs))
	o.Observer.Resolved(spec.Name, targets, len(sel.Rejected))

	switch {
	case len(targets) > 0:
		return targets, nil
	case len(hrefs) == 0:
		log.Warn("listing is empty, nothing to build")
		return nil, nil
	case spec.Required:
		return nil, fmt.Errorf("%s: %w (minimum major %d)", spec.Name, ErrNoTargets, spec.MinimumMajor)
	default:
		return nil, nil
	}
}

// buildAll builds targets one after another in the given order.
func (o *Orchestrator) buildAll(ctx, stop context.Context, targets []build.Target) error {
	for _, t := range targets {
		if err := stop.Err(); err != nil {
			return err
		}

		log := o.Logger.WithFields(logrus.Fields{"channel": t.Channel, "major": t.Major, "tag": t.Tag})
		log.Debug("building image")
		o.Observer.BuildStarted(t)

		start := time.Now()
		_, err := o.Builder.Build(ctx, t)
		o.Observer.BuildFinished(t, time.Since(start), err)
		if err != nil {
			return err
		}

		o.mu.Lock()
		o.report.Built = append(o.report.Built, t.Tag)
		o.mu.Unlock()
	}
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, t build.Target) error {
	out, err := o.Publisher.Push(ctx, t.Tag)
	o.Observer.Published(out, err)
	if err != nil {
		return err
	}
	o.Logger.WithField("tag", t.Tag).Debug("published")

	o.mu.Lock()
	o.report.Published = append(o.report.Published, t.Tag)
	o.mu.Unlock()
	return nil
}

// transition moves the run forward. Concurrent channels may both ask for
// the same state; only the first request is recorded.
func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	if n := len(o.report.States); n > 0 && s != Failed && s <= o.report.States[n-1] {
		o.mu.Unlock()
		return
	}
	o.report.States = append(o.report.States, s)
	o.mu.Unlock()

	o.Logger.WithField("state", s.String()).Debug("state")
	o.Observer.StateChanged(s)
}

// current returns the latest state. Callers hold o.mu.
func (o *Orchestrator) current() State {
	if n := len(o.report.States); n > 0 {
		return o.report.States[n-1]
	}
	return Idle
}

// publishOrder flattens targets into push order: canary, nightly, rc.
// Each channel's targets are already in ascending major order.
func publishOrder(canary, nightly, rc []build.Target) []build.Target {
	out := make([]build.Target, 0, len(canary)+len(nightly)+len(rc))
	out = append(out, canary...)
	out = append(out, nightly...)
	out = append(out, rc...)
	return out
}
