package pipeline

import (
	"time"

	"github.com/sofmeright/nightlyfreight/src/build"
	"github.com/sofmeright/nightlyfreight/src/publish"
)

// Observer is told about run progress. Build callbacks for the nightly and
// rc channels arrive from different goroutines; implementations must be
// safe for concurrent use.
type Observer interface {
	StateChanged(s State)
	Resolved(channel string, targets []build.Target, rejected int)
	BuildStarted(t build.Target)
	BuildFinished(t build.Target, d time.Duration, err error)
	Published(o publish.Outcome, err error)
	Finished(r *Report, err error)
}

// NopObserver ignores everything. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) StateChanged(State)                              {}
func (NopObserver) Resolved(string, []build.Target, int)            {}
func (NopObserver) BuildStarted(build.Target)                       {}
func (NopObserver) BuildFinished(build.Target, time.Duration, error) {}
func (NopObserver) Published(publish.Outcome, error)                {}
func (NopObserver) Finished(*Report, error)                         {}

// Observers fans out to several observers in order.
type Observers []Observer

func (obs Observers) StateChanged(s State) {
	for _, o := range obs {
		o.StateChanged(s)
	}
}

func (obs Observers) Resolved(channel string, targets []build.Target, rejected int) {
	for _, o := range obs {
		o.Resolved(channel, targets, rejected)
	}
}

func (obs Observers) BuildStarted(t build.Target) {
	for _, o := range obs {
		o.BuildStarted(t)
	}
}

func (obs Observers) BuildFinished(t build.Target, d time.Duration, err error) {
	for _, o := range obs {
		o.BuildFinished(t, d, err)
	}
}

func (obs Observers) Published(out publish.Outcome, err error) {
	for _, o := range obs {
		o.Published(out, err)
	}
}

func (obs Observers) Finished(r *Report, err error) {
	for _, o := range obs {
		o.Finished(r, err)
	}
}
