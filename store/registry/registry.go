// Package registry lets binaries select ticket store backends by name.
//
// Backends are linked at build time: a backend package registers itself in
// init(), and a binary enables it with a blank import.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/pflag"

	"xdao.co/support/store"
)

// Usage restricts which programs accept a backend.
type Usage uint8

const (
	UsageCLI Usage = 1 << iota
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

// Opener opens a store from flag values bound earlier. The returned close
// function may be nil.
type Opener func() (store.Store, func() error, error)

type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// Bind registers the backend's flags on fs and returns an Opener that
	// reads them after fs has been parsed.
	Bind func(fs *pflag.FlagSet) Opener
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.Bind == nil {
		return fmt.Errorf("registry: backend %q missing Bind", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("registry: backend %q missing Usage", b.Name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

func lookup(name string, usage Usage) (Backend, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return Backend{}, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("backend %q not supported in this binary", name)
	}
	return b, nil
}

// Flags holds the openers bound on one flag set.
type Flags struct {
	usage   Usage
	openers map[string]Opener
}

// RegisterFlags binds flags for every backend matching usage, so a binary
// can parse all backend flags in a single pass.
func RegisterFlags(fs *pflag.FlagSet, usage Usage) *Flags {
	f := &Flags{usage: usage, openers: map[string]Opener{}}
	for _, b := range List(usage) {
		f.openers[b.Name] = b.Bind(fs)
	}
	return f
}

// Open opens the named backend from parsed flag values.
func (f *Flags) Open(name string) (store.Store, func() error, error) {
	if _, err := lookup(name, f.usage); err != nil {
		return nil, nil, err
	}
	op, ok := f.openers[name]
	if !ok {
		return nil, nil, fmt.Errorf("backend %q has no bound flags", name)
	}
	return op()
}

// OpenWithConfig opens the named backend with settings given as a map from
// flag name to value.
func OpenWithConfig(name string, usage Usage, cfg map[string]string) (store.Store, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	op := b.Bind(fs)
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fs.Set(k, cfg[k]); err != nil {
			return nil, nil, fmt.Errorf("backend %q: config %q: %w", name, k, err)
		}
	}
	return op()
}
