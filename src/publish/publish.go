// Package publish pushes built image tags to their registry.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types/image"
	registrytypes "github.com/docker/docker/api/types/registry"

	"github.com/sofmeright/nightlyfreight/src/engine"
)

// Outcome is the terminal status of one push.
type Outcome struct {
	Tag      string
	Success  bool
	ExitCode int
}

// PublishError is returned when a push ends with a non-zero status.
type PublishError struct {
	Tag      string
	ExitCode int
	Err      error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("push %s failed (exit %d): %v", e.Tag, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("push %s failed (exit %d)", e.Tag, e.ExitCode)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher pushes one tag and waits for it to finish.
type Publisher interface {
	Push(ctx context.Context, tag string) (Outcome, error)
}

// New returns the publisher for a configured mode. client is only used by
// "api", which writes push progress to stdout.
func New(mode string, client engine.API, auth Auth, stdout, stderr io.Writer) (Publisher, error) {
	switch mode {
	case "", "command":
		return NewCommand(stdout, stderr), nil
	case "api":
		return NewEngine(client, auth, stdout)
	default:
		return nil, fmt.Errorf("publish: unknown mode %q (valid: command, api)", mode)
	}
}

// ── docker push ───────────────────────────────────────────────────────────

// RunFunc runs a command and returns its exit code. A non-nil error means
// the command could not be started at all.
type RunFunc func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) (int, error)

// Command pushes by running "docker push <tag>".
type Command struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
	Run    RunFunc
}

// NewCommand creates a docker push publisher.
func NewCommand(stdout, stderr io.Writer) *Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &Command{Binary: "docker", Stdout: stdout, Stderr: stderr, Run: execRun}
}

// Push runs the push command. Exit status zero is success; anything else
// is a *PublishError.
func (c *Command) Push(ctx context.Context, tag string) (Outcome, error) {
	code, err := c.Run(ctx, c.Binary, []string{"push", tag}, c.Stdout, c.Stderr)
	if err != nil {
		if code == 0 {
			code = -1
		}
		return Outcome{Tag: tag, ExitCode: code}, &PublishError{Tag: tag, ExitCode: code, Err: err}
	}
	if code != 0 {
		return Outcome{Tag: tag, ExitCode: code}, &PublishError{Tag: tag, ExitCode: code}
	}
	return Outcome{Tag: tag, Success: true}, nil
}

func execRun(ctx context.Context, name string, args []string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// ── engine API push ───────────────────────────────────────────────────────

// Auth holds registry credentials for engine API pushes.
type Auth struct {
	Username      string
	Password      string
	ServerAddress string
}

// AuthFromEnv reads <PREFIX>_USER and <PREFIX>_PASS. An empty prefix yields
// anonymous auth.
func AuthFromEnv(prefix, server string) Auth {
	a := Auth{ServerAddress: server}
	if prefix == "" {
		return a
	}
	p := strings.ToUpper(prefix)
	a.Username = os.Getenv(p + "_USER")
	a.Password = os.Getenv(p + "_PASS")
	return a
}

// Engine pushes through the engine API and drains the push progress stream.
type Engine struct {
	client engine.API
	auth   string
	out    io.Writer
}

// NewEngine creates an engine API publisher.
func NewEngine(client engine.API, auth Auth, out io.Writer) (*Engine, error) {
	if client == nil {
		return nil, engine.ErrClientNil
	}
	if out == nil {
		out = io.Discard
	}
	encoded, err := registrytypes.EncodeAuthConfig(registrytypes.AuthConfig{
		Username:      auth.Username,
		Password:      auth.Password,
		ServerAddress: auth.ServerAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding registry auth: %w", err)
	}
	return &Engine{client: client, auth: encoded, out: out}, nil
}

// Push requests a push and waits for the progress stream to end. There is
// no process exit status here, so any failure is reported with exit code 1.
func (e *Engine) Push(ctx context.Context, tag string) (Outcome, error) {
	stream, err := e.client.ImagePush(ctx, tag, image.PushOptions{RegistryAuth: e.auth})
	if err != nil {
		return Outcome{Tag: tag, ExitCode: 1}, &PublishError{Tag: tag, ExitCode: 1, Err: err}
	}
	if err := engine.Drain(stream, e.out); err != nil {
		return Outcome{Tag: tag, ExitCode: 1}, &PublishError{Tag: tag, ExitCode: 1, Err: err}
	}
	return Outcome{Tag: tag, Success: true}, nil
}
