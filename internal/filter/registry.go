package filter

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр фильтров.
//
// Заполняется при старте процесса, дальше только читается.
// Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Definition
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]Definition),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными фильтрами.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range builtins() {
		r.MustRegister(def)
	}
	return r
}

// Register регистрирует фильтр.
// Если фильтр с таким именем уже существует, он будет перезаписан.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if def.Func == nil {
		return fmt.Errorf("%w: filter %s has no func", ErrInvalidDefinition, def.Name)
	}
	if err := def.Params.Verify(); err != nil {
		return fmt.Errorf("%w: filter %s: %w", ErrInvalidDefinition, def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[def.Name] = def
	return nil
}

// MustRegister регистрирует фильтр и паникует при ошибке.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get возвращает объявление фильтра по имени.
// Возвращает ErrUnknownFilter, если фильтр не найден.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.filters[name]
	if !exists {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}

	return def, nil
}

// Has проверяет, зарегистрирован ли фильтр.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.filters[name]
	return exists
}

// Names возвращает имена всех фильтров в отсортированном порядке.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List возвращает объявления всех фильтров, отсортированные по имени.
func (r *Registry) List() []Definition {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		if def, ok := r.filters[name]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// Count возвращает количество зарегистрированных фильтров.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}

// Unregister удаляет фильтр из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.filters, name)
}
