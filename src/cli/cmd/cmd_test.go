package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replay = `
https://nodejs.org/download/nightly:
  - ../
  - v12.0.0-nightly20200101aaa/
  - v12.0.0-nightly20200115bbb/
  - v11.0.0-nightly20200201ccc/
  - v13.0.0-nightly/
https://nodejs.org/download/rc/:
  - v14.0.0-rc.1/
  - v14.0.0-rc.10/
https://nodejs.org/download/v8-canary/:
  - v15.0.0-v8-canary20200301bbb/
`

func writeReplay(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.yml")
	require.NoError(t, os.WriteFile(path, []byte(replay), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		listingFile, cfgFile, namespace = "", "", ""
		pubDryRun, pubFloatLatest = false, false
	})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestResolveMajor(t *testing.T) {
	out, err := execute(t, "resolve", "nightly", "12", "--listing-file", writeReplay(t))
	require.NoError(t, err)
	assert.Equal(t,
		"https://nodejs.org/download/nightly/v12.0.0-nightly20200115bbb/node-v12.0.0-nightly20200115bbb-linux-x64.tar.gz\n",
		out)
}

func TestResolveAllMajors(t *testing.T) {
	out, err := execute(t, "resolve", "rc", "--listing-file", writeReplay(t))
	require.NoError(t, err)
	assert.Equal(t,
		"v14\thttps://nodejs.org/download/rc/v14.0.0-rc.10/node-v14.0.0-rc.10-linux-x64.tar.gz\n",
		out)
}

func TestResolveMissingMajor(t *testing.T) {
	_, err := execute(t, "resolve", "canary", "9", "--listing-file", writeReplay(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no build found for major 9")
}

func TestResolveUnknownChannel(t *testing.T) {
	_, err := execute(t, "resolve", "beta", "--listing-file", writeReplay(t))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), `unknown channel "beta"`))
}

func TestPublishDryRun(t *testing.T) {
	_, err := execute(t, "publish", "--dry-run", "--namespace", "acme", "--listing-file", writeReplay(t))
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Registry.Namespace)
}

func TestPublishInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nf.yml")
	require.NoError(t, os.WriteFile(path, []byte("build:\n  engine: kaniko\n"), 0o644))

	_, err := execute(t, "publish", "--dry-run", "--config", path, "--listing-file", writeReplay(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.engine")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "nightlyfreight dev"))
}
