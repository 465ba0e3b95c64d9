package weights

import (
	"strings"

	"github.com/born-ml/decoder/internal/logutil"
	"github.com/born-ml/decoder/internal/tensor"
)

// Builder is an immutable handle to a Store scoped to a name prefix.
// Builders are values; PP returns a new Builder and never modifies the
// receiver, so one Builder can be shared by concurrent loaders.
type Builder struct {
	prefix string
	store  Store
}

// NewBuilder returns a Builder rooted at the given path segments.
func NewBuilder(store Store, prefix ...string) Builder {
	b := Builder{store: store}
	for _, p := range prefix {
		b = b.PP(p)
	}
	return b
}

// PP ("path prefix") returns a Builder scoped to the child name. Empty
// names leave the scope unchanged.
func (b Builder) PP(name string) Builder {
	name = strings.Trim(name, ".")
	if name == "" {
		return b
	}
	return Builder{prefix: join(b.prefix, name), store: b.store}
}

// Prefix returns the Builder's scope, e.g. "layers.3.mlp".
func (b Builder) Prefix() string {
	return b.prefix
}

// Path returns the fully-qualified name of the tensor name within the
// Builder's scope.
func (b Builder) Path(name string) string {
	return join(b.prefix, name)
}

// Store returns the backing store.
func (b Builder) Store() Store {
	return b.store
}

// Get resolves the tensor name within the Builder's scope.
func (b Builder) Get(name string) (*tensor.RawTensor, error) {
	path := b.Path(name)
	if b.store == nil {
		return nil, &WeightLoadError{Path: path, Err: ErrNotFound}
	}

	t, err := b.store.Tensor(path)
	if err != nil {
		return nil, &WeightLoadError{Path: path, Err: err}
	}

	logutil.Trace("resolved tensor", "path", path, "dtype", t.DType(), "shape", t.Shape())
	return t, nil
}

// GetShape resolves name and checks it has exactly the given shape.
func (b Builder) GetShape(name string, shape tensor.Shape) (*tensor.RawTensor, error) {
	t, err := b.Get(name)
	if err != nil {
		return nil, err
	}
	if !t.Shape().Equal(shape) {
		return nil, &WeightLoadError{
			Path: b.Path(name),
			Err:  &tensor.ShapeError{Op: "load", Expected: shape.Clone(), Got: t.Shape().Clone()},
		}
	}
	return t, nil
}

// Has reports whether name exists within the Builder's scope.
func (b Builder) Has(name string) bool {
	if b.store == nil {
		return false
	}
	path := b.Path(name)
	for _, n := range b.store.Names() {
		if n == path {
			return true
		}
	}
	return false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
