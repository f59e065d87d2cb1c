package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Collapsible log sections. GitLab uses section markers, GitHub Actions uses
// workflow groups; anywhere else these are no-ops.

func SectionStart(w io.Writer, id, name string) {
	switch {
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", time.Now().Unix(), id, name)
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	}
}

func SectionEnd(w io.Writer, id string) {
	switch {
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), id)
	case IsGitHubActions():
		fmt.Fprintln(w, "::endgroup::")
	}
}

// SectionStartCollapsed starts a section that is collapsed by default.
// GitHub groups are always collapsed.
func SectionStartCollapsed(w io.Writer, id, name string) {
	if !IsGitLabCI() {
		SectionStart(w, id, name)
		return
	}
	fmt.Fprintf(w, "\033[0Ksection_start:%d:%s[collapsed=true]\r\033[0K%s\n", time.Now().Unix(), id, name)
}

// CIContext returns the pipeline identity fields of the current CI run, for
// use in a ContextBlock.
func CIContext() []KV {
	if !IsCI() {
		return nil
	}
	var kv []KV
	add := func(key string, envs ...string) {
		for _, e := range envs {
			if v := os.Getenv(e); v != "" {
				kv = append(kv, KV{Key: key, Value: v})
				return
			}
		}
	}
	add("pipeline", "CI_PIPELINE_ID", "GITHUB_RUN_ID")
	add("ref", "CI_COMMIT_REF_NAME", "GITHUB_REF_NAME")
	if sha := firstEnv("CI_COMMIT_SHA", "GITHUB_SHA"); len(sha) >= 8 {
		kv = append(kv, KV{Key: "sha", Value: sha[:8]})
	}
	add("runner", "CI_RUNNER_DESCRIPTION", "RUNNER_NAME")
	return kv
}

// CIHeader prints a compact pipeline context line at the start of a CI run.
func CIHeader(w io.Writer) {
	kv := CIContext()
	if len(kv) == 0 {
		return
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		parts = append(parts, p.Key+"="+p.Value)
	}
	fmt.Fprintf(w, "  ci: %s\n", strings.Join(parts, "  "))
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
