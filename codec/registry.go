package codec

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrNotRegistered     = errors.New("codec: not registered")
	ErrDefaultAlreadySet = errors.New("codec: default already set")
)

// Registry maps codec names to codecs and carries one default.
// The default may be chosen explicitly only once; until then it is "json".
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
	def    string
	defSet bool
}

// NewRegistry returns a registry with json (default), raw, msgpack and cbor.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Codec), def: NameJSON}
	r.Register(JSON{})
	r.Register(Raw{})
	r.Register(Msgpack{})
	r.Register(MustCBOR(false))
	return r
}

// Register inserts c under c.Name(), replacing any codec with that name.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	r.codecs[c.Name()] = c
	r.mu.Unlock()
}

// SetDefault picks the codec used when a call names none. It succeeds once.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defSet {
		return fmt.Errorf("%w: %q", ErrDefaultAlreadySet, r.def)
	}
	if _, ok := r.codecs[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	r.def, r.defSet = name, true
	return nil
}

// Resolve returns the codec registered under name, or the default for "".
func (r *Registry) Resolve(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.def
	}
	c, ok := r.codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return c, nil
}

func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Names lists registered codecs in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.codecs))
	for n := range r.codecs {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, created on first use.
// Engines built without an explicit registry share it.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = NewRegistry() })
	return defaultReg
}
