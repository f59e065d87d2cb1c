package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sofmeright/nightlyfreight/src/build"
	"github.com/sofmeright/nightlyfreight/src/pipeline"
	"github.com/sofmeright/nightlyfreight/src/publish"
)

// Console prints human-readable progress for a run: one line per resolved
// channel, per build start and finish, and per push, then a summary section.
// Nightly and rc builds report from different goroutines, so writes are
// serialized.
type Console struct {
	W     io.Writer
	Color bool

	mu      sync.Mutex
	section string
}

// NewConsole writes to stdout with color auto-detection.
func NewConsole() *Console {
	return &Console{W: os.Stdout, Color: UseColor()}
}

var sectionFor = map[pipeline.State]string{
	pipeline.BuildingCanary:   "build-canary",
	pipeline.BuildingChannels: "build-channels",
	pipeline.Publishing:       "publish",
}

func (c *Console) StateChanged(s pipeline.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.section != "" && (s.Terminal() || sectionFor[s] != "") {
		SectionEnd(c.W, c.section)
		c.section = ""
	}
	if id := sectionFor[s]; id != "" {
		SectionStart(c.W, id, s.String())
		c.section = id
	}
}

func (c *Console) Resolved(channel string, targets []build.Target, rejected int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	detail := fmt.Sprintf("%d target(s)", len(targets))
	if rejected > 0 {
		detail += Dimmed(fmt.Sprintf(", %d entries skipped", rejected), c.Color)
	}
	fmt.Fprintf(c.W, "  %-8s %-10s %s\n", "resolve", channel, detail)
}

func (c *Console) BuildStarted(t build.Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.W, "  %-8s %-10s %s  %s\n", "build", t.Channel, t.Tag, Dimmed(t.DownloadURL, c.Color))
}

func (c *Console) BuildFinished(t build.Target, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	icon := StatusIcon(Status(err), c.Color)
	fmt.Fprintf(c.W, "  %-8s %-10s %s  %s (%s)\n", "built", t.Channel, t.Tag, icon, formatElapsed(d))
}

func (c *Console) Published(out publish.Outcome, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		fmt.Fprintf(c.W, "  %-8s %-10s %s  %s exit %d\n", "push", "", out.Tag, StatusIcon("failed", c.Color), out.ExitCode)
		return
	}
	fmt.Fprintf(c.W, "  %-8s %-10s %s  %s\n", "pushed", "", out.Tag, StatusIcon("success", c.Color))
}

// Finished renders the summary section.
func (c *Console) Finished(r *pipeline.Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r == nil {
		return
	}
	sec := NewSection(c.W, "Summary", r.Duration, c.Color)
	pushed := make(map[string]bool, len(r.Published))
	for _, tag := range r.Published {
		pushed[tag] = true
	}
	for _, t := range r.Planned {
		status := "skipped"
		if pushed[t.Tag] {
			status = "success"
		}
		SummaryRow(c.W, t.Channel, status, t.Tag, c.Color)
	}
	if len(r.Planned) == 0 {
		sec.Row("%s", Dimmed("nothing to publish", c.Color))
	}
	if err != nil {
		sec.Separator()
		sec.Row("failed in %s: %v", r.FailedIn, err)
	}
	sec.Separator()
	SummaryTotal(c.W, r.Duration, Status(err), c.Color)
	sec.Close()
}
