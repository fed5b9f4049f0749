package routing

import (
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Filterer stores filter implementations under a name. Filters are looked
// up by that name when the before/after chains are executed.
type Filterer interface {
	Filter(name string, target interface{})
}

func isNilFilterer(f Filterer) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// MethodFilter is a controller method bound as a filter ("@method").
type MethodFilter struct {
	Controller IController
	Method     string
	Action     Action
}

func (m *MethodFilter) Call(in *In) *Out {
	return m.Action(in)
}

// FilterRegistry is the in-memory Filterer.
type FilterRegistry struct {
	mu      sync.RWMutex
	filters map[string]interface{}
	logger  zerolog.Logger
}

func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{
		filters: make(map[string]interface{}),
		logger:  zerolog.Nop(),
	}
}

// SetLogger sets the logger registrations are reported to (debug level).
func (r *FilterRegistry) SetLogger(l zerolog.Logger) {
	r.mu.Lock()
	r.logger = l.With().Str("module", "filterer").Logger()
	r.mu.Unlock()
}

// Filter registers target under name, replacing any previous entry.
func (r *FilterRegistry) Filter(name string, target interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filters == nil {
		r.filters = make(map[string]interface{})
	}
	_, replaced := r.filters[name]
	r.filters[name] = target
	r.logger.Debug().Str("filter", name).Bool("replaced", replaced).Msg("filter registered")
}

func (r *FilterRegistry) Lookup(name string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.filters[name]
	return v, ok
}

// Func returns the registered target as a FilterFunc, if it is callable.
func (r *FilterRegistry) Func(name string) (FilterFunc, bool) {
	v, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	switch fn := v.(type) {
	case FilterFunc:
		return fn, true
	case func(*In) *Out:
		return FilterFunc(fn), true
	case *MethodFilter:
		return fn.Call, true
	}
	return nil, false
}

func (r *FilterRegistry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *FilterRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.filters))
	for k := range r.filters {
		names = append(names, k)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *FilterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}
