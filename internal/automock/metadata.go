// Package automock implements spec.md §4.6's automock synthesiser: it
// introspects a live module's exports into a serialisable shape and
// regenerates a mock value from that shape, replacing every function
// with a recording mockfn.MockFunction.
//
// The shape introspection is grounded on cuelang.org/go: a live Go value
// is walked via reflect into a plain-data shape descriptor (functions
// replaced with a marker string so the descriptor never carries
// non-data Go values), and that descriptor is encoded into a cue.Value
// via cue.Context.Encode. Encoding doubles as the "null result" check
// spec.md §4.6 step 2 requires: a shape CUE cannot encode (e.g. a
// channel, or a value reflect cannot walk) comes back with a non-nil
// cue.Value.Err(), which this package turns into ErrMetadataFailure.
package automock

import (
	"fmt"
	"reflect"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
	"github.com/sandboxtest/sandboxtest/internal/mockfn"
)

// functionMarker is substituted for every function-kind leaf before the
// shape is handed to cue.Context.Encode, since cue has no function kind.
const functionMarker = "\x00function\x00"

// kind classifies one node of a value's shape.
type kind int

const (
	kindInvalid kind = iota
	kindFunc
	kindStruct
	kindMap
	kindSlice
	kindPointer
	kindScalar
)

// node is one level of a shape descriptor.
type node struct {
	kind   kind
	typ    reflect.Type
	fields map[string]*node // kindStruct, kindMap
	elem   *node            // kindSlice, kindPointer
	keys   []string         // preserves field/key order for kindStruct/kindMap
}

// metadata is the contracts.Metadata implementation this package
// produces.
type metadata struct {
	modulePath string
	root       *node
}

func (m *metadata) ModulePath() string { return m.modulePath }

// ErrMetadataFailure is returned (wrapped) when a module's exports
// cannot be described as metadata, per spec.md §4.6 step 2's "On null
// result, fail with an error naming the module."
type ErrMetadataFailure struct {
	ModulePath string
	Cause      error
}

func (e *ErrMetadataFailure) Error() string {
	return fmt.Sprintf("sandboxtest: cannot automock %s: %v (see https://sandboxtest.dev/docs/automock)", e.ModulePath, e.Cause)
}

func (e *ErrMetadataFailure) Unwrap() error { return e.Cause }

// Provider is the default contracts.MetadataProvider implementation.
type Provider struct {
	ctx *cue.Context
}

// NewProvider constructs a Provider with its own CUE context.
func NewProvider() *Provider {
	return &Provider{ctx: cuecontext.New()}
}

var _ contracts.MetadataProvider = (*Provider)(nil)

// GetMetadata introspects value's shape and verifies it is
// CUE-encodable, per the package doc.
func (p *Provider) GetMetadata(modulePath string, value any) (contracts.Metadata, error) {
	if value == nil {
		return nil, &ErrMetadataFailure{ModulePath: modulePath, Cause: fmt.Errorf("nil exports")}
	}

	root := shapeOf(reflect.ValueOf(value))
	if root == nil {
		return nil, &ErrMetadataFailure{ModulePath: modulePath, Cause: fmt.Errorf("unshapeable value of type %T", value)}
	}

	plain := toPlainData(root)
	cv := p.ctx.Encode(plain)
	if err := cv.Err(); err != nil {
		return nil, &ErrMetadataFailure{ModulePath: modulePath, Cause: err}
	}

	return &metadata{modulePath: modulePath, root: root}, nil
}

// GenerateFromMetadata regenerates a mock value from meta, substituting
// a fresh mockfn.MockFunction for every function-kind node.
func (p *Provider) GenerateFromMetadata(meta contracts.Metadata) (any, error) {
	m, ok := meta.(*metadata)
	if !ok {
		return nil, fmt.Errorf("sandboxtest: metadata not produced by automock.Provider")
	}
	return generate(m.root), nil
}

// IsMockFunction reports whether value is a mock function this provider
// would have generated.
func (p *Provider) IsMockFunction(value any) bool {
	return mockfn.IsMockFunction(value)
}

// shapeOf walks v into a node, dereferencing pointers and unwrapping
// interfaces. Returns nil if v is invalid or of an unshapeable kind
// (channel, unsafe pointer, complex).
func shapeOf(v reflect.Value) *node {
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Func:
		return &node{kind: kindFunc, typ: v.Type()}

	case reflect.Pointer:
		if v.IsNil() {
			return &node{kind: kindPointer, typ: v.Type(), elem: zeroShape(v.Type().Elem())}
		}
		return &node{kind: kindPointer, typ: v.Type(), elem: shapeOf(v.Elem())}

	case reflect.Struct:
		n := &node{kind: kindStruct, typ: v.Type(), fields: make(map[string]*node)}
		for i := 0; i < v.NumField(); i++ {
			sf := v.Type().Field(i)
			if !sf.IsExported() {
				continue
			}
			child := shapeOf(v.Field(i))
			if child == nil {
				child = &node{kind: kindScalar, typ: sf.Type}
			}
			n.fields[sf.Name] = child
			n.keys = append(n.keys, sf.Name)
		}
		return n

	case reflect.Map:
		n := &node{kind: kindMap, typ: v.Type(), fields: make(map[string]*node)}
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			child := shapeOf(iter.Value())
			if child == nil {
				child = &node{kind: kindScalar, typ: v.Type().Elem()}
			}
			n.fields[key] = child
			n.keys = append(n.keys, key)
		}
		sort.Strings(n.keys)
		return n

	case reflect.Slice, reflect.Array:
		var elem *node
		if v.Len() > 0 {
			elem = shapeOf(v.Index(0))
		} else {
			elem = zeroShape(v.Type().Elem())
		}
		return &node{kind: kindSlice, typ: v.Type(), elem: elem}

	case reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil

	default:
		return &node{kind: kindScalar, typ: v.Type()}
	}
}

// zeroShape computes the shape of t's zero value, used when a
// collection is empty or a pointer is nil but its pointee type is still
// known.
func zeroShape(t reflect.Type) *node {
	if t.Kind() == reflect.Func {
		return &node{kind: kindFunc, typ: t}
	}
	return shapeOf(reflect.New(t).Elem())
}

// toPlainData converts a node tree into map[string]any/[]any/scalar
// values suitable for cue.Context.Encode, substituting functionMarker
// for function-kind leaves.
func toPlainData(n *node) any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case kindFunc:
		return functionMarker
	case kindPointer:
		return toPlainData(n.elem)
	case kindStruct, kindMap:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = toPlainData(n.fields[k])
		}
		return out
	case kindSlice:
		if n.elem == nil {
			return []any{}
		}
		return []any{toPlainData(n.elem)}
	default:
		return reflect.New(n.typ).Elem().Interface()
	}
}

// generate regenerates a mock Go value from a node tree.
func generate(n *node) any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case kindFunc:
		return mockfn.New(nil)
	case kindPointer:
		return generate(n.elem)
	case kindStruct, kindMap:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = generate(n.fields[k])
		}
		return out
	case kindSlice:
		return []any{}
	default:
		return reflect.New(n.typ).Elem().Interface()
	}
}
