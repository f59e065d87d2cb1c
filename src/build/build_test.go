package build

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	buildtypes "github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dockerfile = `FROM debian:bookworm-slim
ARG DL_LINK
RUN curl -fsSL "$DL_LINK" | tar -xz -C /usr/local --strip-components=1
`

// fakeEngine records build requests and replays a canned progress stream.
type fakeEngine struct {
	stream   string
	buildErr error

	opts  buildtypes.ImageBuildOptions
	files []string
}

func (f *fakeEngine) ImageBuild(_ context.Context, buildContext io.Reader, options buildtypes.ImageBuildOptions) (buildtypes.ImageBuildResponse, error) {
	f.opts = options
	tr := tar.NewReader(buildContext)
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		f.files = append(f.files, hdr.Name)
	}
	if f.buildErr != nil {
		return buildtypes.ImageBuildResponse{}, f.buildErr
	}
	return buildtypes.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(f.stream))}, nil
}

func (f *fakeEngine) ImagePush(context.Context, string, image.PushOptions) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEngine) Close() error { return nil }

func writeContext(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(content), 0o644))
	return dir
}

var nightly14 = Target{
	Channel:     "nightly",
	Major:       14,
	Reference:   "v14.0.0-nightly20200301abc/",
	DownloadURL: "https://nodejs.org/download/nightly/v14.0.0-nightly20200301abc/node-v14.0.0-nightly20200301abc-linux-x64.tar.gz",
	Tag:         "acme/node_nightly:v14",
}

func TestAPIBuilderSuccess(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{stream: `{"stream":"Successfully tagged acme/node_nightly:v14\n"}` + "\n"}
	b, err := Get("api", Options{Context: writeContext(t, dockerfile), Client: eng})
	require.NoError(t, err)
	assert.Equal(t, "api", b.Name())

	res, err := b.Build(context.Background(), nightly14)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "acme/node_nightly:v14", res.Image)

	assert.Equal(t, "Dockerfile", eng.opts.Dockerfile)
	assert.Equal(t, []string{"acme/node_nightly:v14"}, eng.opts.Tags)
	require.NotNil(t, eng.opts.BuildArgs[DownloadArg])
	assert.Equal(t, nightly14.DownloadURL, *eng.opts.BuildArgs[DownloadArg])
	assert.Equal(t, nightly14.DownloadURL, eng.opts.Labels[LabelSource])
	assert.Contains(t, eng.files, "Dockerfile")
}

func TestAPIBuilderStreamError(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{stream: `{"errorDetail":{"message":"returned a non-zero code: 22"},"error":"returned a non-zero code: 22"}` + "\n"}
	b, err := Get("api", Options{Context: writeContext(t, dockerfile), Client: eng})
	require.NoError(t, err)

	res, err := b.Build(context.Background(), nightly14)
	require.Error(t, err)
	assert.True(t, IsBuildError(err))
	assert.Equal(t, "failed", res.Status)

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "acme/node_nightly:v14", be.Tag)
}

func TestAPIBuilderRequestError(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{buildErr: errors.New("daemon unreachable")}
	b, err := Get("api", Options{Context: writeContext(t, dockerfile), Client: eng})
	require.NoError(t, err)

	_, err = b.Build(context.Background(), nightly14)
	require.Error(t, err)
	assert.True(t, IsBuildError(err))
	assert.Contains(t, err.Error(), "daemon unreachable")
}

func TestAPIBuilderNeedsClient(t *testing.T) {
	t.Parallel()

	_, err := Get("api", Options{})
	assert.Error(t, err)
}

func TestGetUnknownEngine(t *testing.T) {
	t.Parallel()

	_, err := Get("kaniko", Options{})
	assert.Error(t, err)
	assert.Equal(t, []string{"api", "buildx"}, All())
}

func TestBuildxArgs(t *testing.T) {
	t.Parallel()

	bx := NewBuildx(Options{
		Context:    "images/node",
		Dockerfile: "Dockerfile",
		Labels:     map[string]string{LabelCreated: "2020-03-01T00:00:00Z"},
	})

	assert.Equal(t, []string{
		"buildx", "build", "--load",
		"--file", filepath.Join("images/node", "Dockerfile"),
		"--build-arg", "DL_LINK=" + nightly14.DownloadURL,
		"--label", LabelCreated + "=2020-03-01T00:00:00Z",
		"--label", LabelSource + "=" + nightly14.DownloadURL,
		"--label", LabelVersion + "=v14.0.0-nightly20200301abc",
		"--tag", "acme/node_nightly:v14",
		"images/node",
	}, bx.buildArgs(nightly14))
}

func TestBuildxMissingBinary(t *testing.T) {
	t.Parallel()

	bx := NewBuildx(Options{Context: t.TempDir(), Dockerfile: "Dockerfile"})
	bx.Binary = filepath.Join(t.TempDir(), "no-such-docker")

	res, err := bx.Build(context.Background(), nightly14)
	require.Error(t, err)
	assert.True(t, IsBuildError(err))
	assert.Equal(t, "failed", res.Status)
}

func TestCheckContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckContext(writeContext(t, dockerfile), "Dockerfile"))

	err := CheckContext(writeContext(t, "FROM scratch\nARG OTHER=1\n"), "Dockerfile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARG DL_LINK")

	assert.Error(t, CheckContext(t.TempDir(), "Dockerfile"))
}

func TestLabelsDoNotMutateBase(t *testing.T) {
	t.Parallel()

	base := map[string]string{LabelCreated: "x"}
	labels := Labels(nightly14, base)

	assert.Len(t, base, 1)
	assert.Equal(t, "x", labels[LabelCreated])
	assert.Equal(t, "v14.0.0-nightly20200301abc", labels[LabelVersion])
}

func TestBaseLabelsGitRevision(t *testing.T) {
	t.Parallel()

	dir := writeContext(t, dockerfile)
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("Dockerfile")
	require.NoError(t, err)
	hash, err := wt.Commit("add Dockerfile", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	now := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	labels := BaseLabels(dir, now)
	assert.Equal(t, hash.String(), labels[LabelRevision])
	assert.Equal(t, "2020-03-01T12:00:00Z", labels[LabelCreated])

	plain := BaseLabels(t.TempDir(), now)
	_, ok := plain[LabelRevision]
	assert.False(t, ok)
}
