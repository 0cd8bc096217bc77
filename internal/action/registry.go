package action

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — каталог actions.
//
// Заполняется при старте процесса, дальше только читается.
// Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными actions.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(NewHTTP())
	r.MustRegister(NewDelay())
	r.MustRegister(NewCompare())
	r.MustRegister(NewRegexMatch())
	r.MustRegister(NewExpr())

	return r
}

// Register регистрирует action.
// Если action с таким именем уже существует, он будет перезаписан.
func (r *Registry) Register(a Action) error {
	if err := verify(a); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.Name] = a
	return nil
}

// MustRegister регистрирует action и паникует при ошибке.
func (r *Registry) MustRegister(a Action) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

func verify(a Action) error {
	if a.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAction)
	}
	if a.Func == nil {
		return fmt.Errorf("%w: action %s has no func", ErrInvalidAction, a.Name)
	}
	if a.Input.Name == "" {
		return fmt.Errorf("%w: action %s has no input name", ErrInvalidAction, a.Name)
	}
	if !a.Input.Type.Valid() {
		return fmt.Errorf("%w: action %s input has unknown type %q", ErrInvalidAction, a.Name, a.Input.Type)
	}
	if err := a.Params.Verify(); err != nil {
		return fmt.Errorf("%w: action %s: %w", ErrInvalidAction, a.Name, err)
	}
	// Вход кладётся в args под своим именем и перекрыл бы параметр
	if _, clash := a.Params.Lookup(a.Input.Name); clash {
		return fmt.Errorf("%w: action %s input %q collides with a parameter",
			ErrInvalidAction, a.Name, a.Input.Name)
	}
	return nil
}

// Get возвращает action по имени.
// Возвращает ErrUnknownAction, если action не найден.
func (r *Registry) Get(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[name]
	if !exists {
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	return a, nil
}

// Has проверяет, зарегистрирован ли action.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.actions[name]
	return exists
}

// Names возвращает список всех зарегистрированных actions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List возвращает все actions, отсортированные по имени.
func (r *Registry) List() []Action {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Action, 0, len(names))
	for _, name := range names {
		if a, ok := r.actions[name]; ok {
			list = append(list, a)
		}
	}
	return list
}

// Count возвращает количество зарегистрированных actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Unregister удаляет action из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, name)
}
