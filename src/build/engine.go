package build

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sofmeright/nightlyfreight/src/engine"
)

// DownloadArg is the build argument carrying the tarball link into the Dockerfile.
const DownloadArg = "DL_LINK"

// Builder builds one image per target and blocks until the engine reports
// completion or failure. Failures are returned as *BuildError.
type Builder interface {
	Name() string
	Build(ctx context.Context, t Target) (*StepResult, error)
}

// Options configures a builder. Client is only used by the "api" engine.
type Options struct {
	Context    string // build directory
	Dockerfile string // relative to Context
	Client     engine.API
	Labels     map[string]string // extra labels applied to every image
	Stdout     io.Writer
	Stderr     io.Writer
	Verbose    bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func(Options) (Builder, error){}
)

// Register adds a builder constructor to the global registry.
// Called from init() next to each builder implementation.
func Register(name string, constructor func(Options) (Builder, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("build: duplicate engine registration: %s", name))
	}
	registry[name] = constructor
}

// Get returns a new instance of the named builder.
func Get(name string, opts Options) (Builder, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("build: unknown engine: %s", name)
	}
	if opts.Dockerfile == "" {
		opts.Dockerfile = "Dockerfile"
	}
	if opts.Context == "" {
		opts.Context = "."
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return ctor(opts)
}

// All returns sorted names of all registered engines.
func All() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
