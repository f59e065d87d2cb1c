package build

import (
	"fmt"
	"strings"

	"github.com/sofmeright/nightlyfreight/src/artifact"
	"github.com/sofmeright/nightlyfreight/src/config"
)

// LatestTag is the floating tag given to the highest nightly major.
const LatestTag = "latest"

// Target is one image to build: a download link and the tag it is built under.
type Target struct {
	Channel       string
	Major         int
	Reference     string // listing entry the target was resolved from
	DownloadURL   string
	Tag           string
	IsLatestAlias bool
}

// TagOptions controls tag naming.
type TagOptions struct {
	Namespace   string // e.g. "acme"
	Repository  string // e.g. "node_nightly"
	FloatLatest bool   // also tag the highest nightly major as latest
}

// DownloadURL builds the linux-x64 tarball link for a listing entry:
//
//	https://nodejs.org/download/nightly/ + v14.0.0-nightly20200301abc/
//	  → .../v14.0.0-nightly20200301abc/node-v14.0.0-nightly20200301abc-linux-x64.tar.gz
func DownloadURL(baseURL, ref string) string {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + ref + "node-" + strings.TrimSuffix(ref, "/") + "-linux-x64.tar.gz"
}

// Tag formats <namespace>/<repository>:v<major><suffix>.
func Tag(opts TagOptions, major int, suffix string) string {
	return fmt.Sprintf("%s/%s:v%d%s", opts.Namespace, opts.Repository, major, sanitizeTag(suffix))
}

// LatestRef formats <namespace>/<repository>:latest.
func LatestRef(opts TagOptions) string {
	return fmt.Sprintf("%s/%s:%s", opts.Namespace, opts.Repository, LatestTag)
}

// ResolveTargets maps a channel's selection to build targets in ascending
// major order. HighestOnly channels resolve only their newest major. With
// FloatLatest, the nightly channel gets an extra latest target right after
// its highest major, built from the same download URL.
func ResolveTargets(spec config.ChannelSpec, sel artifact.Selection, opts TagOptions) []Target {
	majors := sel.Majors()
	if spec.HighestOnly && len(majors) > 1 {
		majors = majors[len(majors)-1:]
	}

	targets := make([]Target, 0, len(majors)+1)
	for _, major := range majors {
		rec := sel.Latest[major]
		targets = append(targets, Target{
			Channel:     spec.Name,
			Major:       major,
			Reference:   rec.Reference,
			DownloadURL: DownloadURL(spec.BaseURL, rec.Reference),
			Tag:         Tag(opts, major, spec.TagSuffix),
		})
	}

	if opts.FloatLatest && spec.Name == config.ChannelNightly && len(targets) > 0 {
		top := targets[len(targets)-1]
		top.Tag = LatestRef(opts)
		top.IsLatestAlias = true
		targets = append(targets, top)
	}

	return targets
}

// sanitizeTag replaces characters not allowed in Docker tags.
func sanitizeTag(s string) string {
	r := strings.NewReplacer(
		"/", "-",
		" ", "-",
	)
	return r.Replace(s)
}
