// Package transform implements the default contracts.Transformer: module
// bodies are pre-registered Go closures keyed by absolute filename,
// standing in for "source text compiled to an evaluable script" the way
// spec.md §1's out-of-scope transformer does, without requiring an
// actual foreign-language compiler front-end. For filenames nothing has
// registered ahead of time, Transform falls back to loading the file as
// a Go plugin: callers build their test bodies with the host toolchain
// (`go build -buildmode=plugin`) and hand sandboxtest the resulting
// .so, which is how "sandboxtest run" executes real files rather than
// only pre-registered ones.
package transform

import (
	"fmt"
	"plugin"
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
)

// WrapperSymbol is the exported plugin symbol loadPlugin looks up: either
// a contracts.WrapperFunc value or a *contracts.WrapperFunc variable.
const WrapperSymbol = "Wrapper"

// NativeScript wraps a registered module body.
type NativeScript struct {
	filename string
	wrapper  contracts.WrapperFunc
}

func (s *NativeScript) Filename() string              { return s.filename }
func (s *NativeScript) Wrapper() contracts.WrapperFunc { return s.wrapper }

// NativeTransformer is a Transformer whose "source" is a Go closure
// registered ahead of time for a given absolute path, or loadable on
// demand from a compiled Go plugin at that path. Real foreign-language
// source text is never read.
type NativeTransformer struct {
	mu     sync.Mutex
	bodies map[string]contracts.WrapperFunc
}

// Register installs fn as the module body for the given absolute path.
func (t *NativeTransformer) Register(path string, fn contracts.WrapperFunc) {
	t.mu.Lock()
	if t.bodies == nil {
		t.bodies = make(map[string]contracts.WrapperFunc)
	}
	t.bodies[path] = fn
	t.mu.Unlock()
}

// Transform returns a NativeScript for filename's registered body. If
// nothing was registered, it tries loading filename as a Go plugin
// exporting WrapperSymbol before giving up.
func (t *NativeTransformer) Transform(filename string, opts contracts.TransformOptions) (contracts.Script, error) {
	t.mu.Lock()
	fn, ok := t.bodies[filename]
	t.mu.Unlock()

	var pluginErr error
	if !ok {
		loaded, err := loadPluginWrapper(filename)
		if err == nil {
			fn = loaded
			ok = true
			t.Register(filename, fn)
		} else {
			pluginErr = err
		}
	}

	if !ok {
		if pluginErr != nil {
			return nil, pluginErr
		}
		return nil, fmt.Errorf("sandboxtest: no module body registered for %s", filename)
	}

	wrapper := fn
	if opts.Instrument != nil {
		instrumented := opts.Instrument
		wrapper = func(args contracts.WrapperArgs) error {
			if _, err := instrumented(filename, filename); err != nil {
				return err
			}
			return fn(args)
		}
	}

	return &NativeScript{filename: filename, wrapper: wrapper}, nil
}

// loadPluginWrapper opens filename as a Go plugin and extracts its
// WrapperSymbol export. It is the "real source-reading path" sandboxtest
// run uses for files nobody registered a body for in-process.
func loadPluginWrapper(filename string) (contracts.WrapperFunc, error) {
	p, err := plugin.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("sandboxtest: %s is not a registered body or a loadable plugin: %w", filename, err)
	}

	sym, err := p.Lookup(WrapperSymbol)
	if err != nil {
		return nil, fmt.Errorf("sandboxtest: plugin %s does not export %s: %w", filename, WrapperSymbol, err)
	}

	switch w := sym.(type) {
	case contracts.WrapperFunc:
		return w, nil
	case *contracts.WrapperFunc:
		return *w, nil
	default:
		return nil, fmt.Errorf("sandboxtest: plugin %s's %s export is not a contracts.WrapperFunc", filename, WrapperSymbol)
	}
}

var _ contracts.Transformer = (*NativeTransformer)(nil)
