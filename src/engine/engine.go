// Package engine is the boundary to the container engine API. The client is
// created once per process and handed to the builder and publisher.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	buildtypes "github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
)

// ErrClientNil is returned when a component needs an engine client but got none.
var ErrClientNil = errors.New("engine client cannot be nil")

// API is the subset of the docker client used here. *client.Client satisfies it.
type API interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options buildtypes.ImageBuildOptions) (buildtypes.ImageBuildResponse, error)
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	Close() error
}

// NewClient creates an engine client from DOCKER_HOST and friends.
func NewClient() (API, error) {
	c, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return c, nil
}

// Drain reads a JSON progress stream to the end, writing human-readable
// progress to out. An error message inside the stream is returned as error;
// the stream is always closed.
func Drain(stream io.ReadCloser, out io.Writer) error {
	defer func() { _ = stream.Close() }()
	if out == nil {
		out = io.Discard
	}
	if err := jsonmessage.DisplayJSONMessagesStream(stream, out, 0, false, nil); err != nil {
		return err
	}
	return nil
}
