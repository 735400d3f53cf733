package nemo

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Vovarama1992/asrserve/internal/ports"
)

var ErrUnknownTarget = errors.New("no model registered for target")

// Factory builds a model from checkpoint metadata on the given device.
type Factory func(ckpt *Checkpoint, dev Device) (ports.ASRModel, error)

// Registry maps dotted class paths (or their package prefixes) to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(prefix string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[prefix] = f
}

// Resolve picks the longest registered prefix of target.
func (r *Registry) Resolve(target string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best    string
		factory Factory
	)
	for prefix, f := range r.factories {
		if strings.HasPrefix(target, prefix) && len(prefix) > len(best) {
			best, factory = prefix, f
		}
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return factory, nil
}

// ClassName returns the last segment of a dotted class path.
func ClassName(target string) string {
	if i := strings.LastIndex(target, "."); i >= 0 {
		return target[i+1:]
	}
	return target
}

// Restore resolves the checkpoint's class and builds the model.
func (r *Registry) Restore(ckpt *Checkpoint, dev Device) (ports.ASRModel, error) {
	f, err := r.Resolve(ckpt.Target)
	if err != nil {
		return nil, err
	}
	m, err := f(ckpt, dev)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", ClassName(ckpt.Target), err)
	}
	return m, nil
}
