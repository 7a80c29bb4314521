package runtime

import (
	"errors"
	"fmt"
)

// ErrSandboxTornDown is checked and silently swallowed in execModule,
// per spec.md §7's "sandbox-torn-down (silently ignored in execModule;
// treated as 'nothing more to do')".
var ErrSandboxTornDown = errors.New("sandboxtest: sandbox environment torn down")

// ResolutionError wraps a resolver failure, per spec.md §7's
// "resolution-failure (propagated from the resolver...)".
type ResolutionError struct {
	From      string
	Specifier string
	Cause     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("sandboxtest: cannot resolve %q from %s: %v", e.Specifier, e.From, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// SyntaxError wraps a sandbox evaluation syntax error with the
// file-relative path and preprocessor guidance, per spec.md §4.5's
// final paragraph and §7.
type SyntaxError struct {
	RelativePath string
	Cause        error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sandboxtest: syntax error in %s (check scriptPreprocessor/usesBabelJest configuration): %v", e.RelativePath, e.Cause)
}

func (e *SyntaxError) Unwrap() error { return e.Cause }

// IsSyntaxError lets a *SyntaxError identify itself through the same
// syntaxErrorMarker interface a transformer's own error type uses,
// so IsSyntaxError(err) still reports true once loader.go has already
// wrapped the transformer's error into a *SyntaxError.
func (e *SyntaxError) IsSyntaxError() bool { return true }

// syntaxErrorMarker lets a Transformer's error participate in the
// wrap-as-SyntaxError branch of execModule without this package
// depending on the transformer's concrete error type.
type syntaxErrorMarker interface {
	IsSyntaxError() bool
}

// IsSyntaxError reports whether err (or something it wraps) identifies
// itself as a syntax error via syntaxErrorMarker.
func IsSyntaxError(err error) bool {
	var marker syntaxErrorMarker
	if errors.As(err, &marker) {
		return marker.IsSyntaxError()
	}
	return false
}

// AutomockMetadataError wraps spec.md §7's "automock-metadata-failure
// (thrown with the module path and a documentation link)".
type AutomockMetadataError struct {
	ModulePath string
	Cause      error
}

func (e *AutomockMetadataError) Error() string {
	return fmt.Sprintf("sandboxtest: automock metadata failure for %s: %v", e.ModulePath, e.Cause)
}

func (e *AutomockMetadataError) Unwrap() error { return e.Cause }
