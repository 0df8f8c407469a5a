package sorter

import (
	"fmt"
	"sort"

	"github.com/alphadose/haxmap"
)

// Registry maps scene names to their sorters. Each scene has its own buffers,
// so different scenes may be sorted concurrently.
type Registry struct {
	sorters *haxmap.Map[string, *Sorter]
}

func NewRegistry() *Registry {
	return &Registry{
		sorters: haxmap.New[string, *Sorter](),
	}
}

// Add registers s under name. It fails if the name is taken.
func (r *Registry) Add(name string, s *Sorter) error {
	if _, loaded := r.sorters.GetOrSet(name, s); loaded {
		return fmt.Errorf("scene %q already registered", name)
	}
	return nil
}

// Get returns the sorter registered under name.
func (r *Registry) Get(name string) (*Sorter, bool) {
	return r.sorters.Get(name)
}

// Remove unregisters and closes the sorter under name.
func (r *Registry) Remove(name string) bool {
	s, ok := r.sorters.Get(name)
	if !ok {
		return false
	}
	r.sorters.Del(name)
	s.Close()
	return true
}

// Names returns the registered scene names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	r.sorters.ForEach(func(name string, _ *Sorter) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return int(r.sorters.Len())
}

// Close closes and unregisters every sorter.
func (r *Registry) Close() {
	for _, name := range r.Names() {
		r.Remove(name)
	}
}
