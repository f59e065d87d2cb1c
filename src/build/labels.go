package build

import (
	"fmt"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
)

// OCI image annotation keys.
const (
	LabelSource   = "org.opencontainers.image.source"
	LabelVersion  = "org.opencontainers.image.version"
	LabelRevision = "org.opencontainers.image.revision"
	LabelCreated  = "org.opencontainers.image.created"
)

// BaseLabels returns labels shared by every image of a run: the creation
// time and, when the build directory is inside a git repository, its HEAD.
func BaseLabels(contextDir string, now time.Time) map[string]string {
	labels := map[string]string{
		LabelCreated: now.UTC().Format(time.RFC3339),
	}
	if rev, err := GitRevision(contextDir); err == nil {
		labels[LabelRevision] = rev
	}
	return labels
}

// Labels returns base plus the per-target source and version labels.
// base is not modified.
func Labels(t Target, base map[string]string) map[string]string {
	out := make(map[string]string, len(base)+2)
	for k, v := range base {
		out[k] = v
	}
	out[LabelSource] = t.DownloadURL
	if t.Reference != "" {
		out[LabelVersion] = strings.TrimSuffix(t.Reference, "/")
	}
	return out
}

// GitRevision returns the HEAD commit of the repository containing dir.
func GitRevision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening git repo at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), nil
}
