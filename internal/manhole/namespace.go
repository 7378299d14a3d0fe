package manhole

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/manholectl/internal/engine"
)

var ErrInvalidMode = errors.New("manhole: invalid namespace mode")

// NamespaceMode selects how connections map to namespaces.
type NamespaceMode string

const (
	// ModeIsolated gives every connection an independent namespace seeded
	// from the same mapping.
	ModeIsolated NamespaceMode = "isolated"
	// ModeShared hands one namespace to every connection; mutations from one
	// session are immediately visible to all others.
	ModeShared NamespaceMode = "shared"
)

// Factory builds the namespace a new connection executes against. The seed
// mapping is captured at construction and never mutated by the server.
type Factory struct {
	mode   NamespaceMode
	seed   map[string]any
	shared *engine.Interp
}

func NewFactory(mode NamespaceMode, seed map[string]any) (*Factory, error) {
	if strings.TrimSpace(string(mode)) == "" {
		mode = ModeIsolated
	}
	switch mode {
	case ModeIsolated:
		if err := engine.ValidateSeed(seed); err != nil {
			return nil, err
		}
		return &Factory{mode: mode, seed: copySeed(seed)}, nil
	case ModeShared:
		shared, err := engine.New(seed)
		if err != nil {
			return nil, err
		}
		return &Factory{mode: mode, shared: shared}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func (f *Factory) Mode() NamespaceMode {
	return f.mode
}

// Namespace returns the namespace for one new connection: the shared
// singleton in shared mode, a fresh seeded interpreter otherwise.
func (f *Factory) Namespace() (*engine.Interp, error) {
	if f.mode == ModeShared {
		return f.shared, nil
	}
	return engine.New(f.seed)
}

func copySeed(seed map[string]any) map[string]any {
	out := make(map[string]any, len(seed))
	for k, v := range seed {
		out[k] = v
	}
	return out
}
