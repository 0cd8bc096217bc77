package step

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Flagship/internal/action"
	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/events"
	"github.com/shaiso/Flagship/internal/filter"
)

// Step — объявленная единица работы: action, аргументы и цепочка фильтров.
//
// Step неизменяем после создания и не хранит состояния вызова,
// поэтому Invoke можно вызывать конкурентно.
type Step struct {
	id      string
	action  action.Action
	args    engine.Args
	filters []*filter.Filter

	emitter events.Emitter
	logger  *slog.Logger
}

// Option настраивает Step при создании.
type Option func(*Step)

// WithID задаёт ID шага. Пустой ID означает "выдать новый".
func WithID(id string) Option {
	return func(s *Step) {
		if id != "" {
			s.id = id
		}
	}
}

// WithEmitter задаёт получателя событий шага.
func WithEmitter(e events.Emitter) Option {
	return func(s *Step) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithLogger задаёт логгер шага.
// Без него используется логгер из context вызова.
func WithLogger(l *slog.Logger) Option {
	return func(s *Step) {
		s.logger = l
	}
}

// New создаёт шаг.
//
// Создание атомарно: либо шаг полностью валиден, либо возвращается ошибка
// (ErrMalformedDeclaration, ErrUnknownAction, ErrInvalidParameters) и nil.
// Аргументы-ссылки считаются присутствующими и проверяются при каждом вызове.
func New(actions *action.Registry, name string, args engine.Args, filters []*filter.Filter, opts ...Option) (*Step, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: action is required", ErrMalformedDeclaration)
	}

	for argName, v := range args {
		if argName == "" {
			return nil, fmt.Errorf("%w: argument with empty name", ErrMalformedDeclaration)
		}
		if v == nil {
			return nil, fmt.Errorf("%w: argument %q has no value", ErrMalformedDeclaration, argName)
		}
		if ref, ok := v.(engine.Reference); ok && ref.Step == "" {
			return nil, fmt.Errorf("%w: argument %q references an empty step", ErrMalformedDeclaration, argName)
		}
	}
	for i, f := range filters {
		if f == nil {
			return nil, fmt.Errorf("%w: filter #%d is nil", ErrMalformedDeclaration, i)
		}
	}

	a, err := actions.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownAction, err)
	}

	if args == nil {
		args = engine.Args{}
	}
	if _, err := a.Params.Check(args.Literals(), args.References()...); err != nil {
		return nil, fmt.Errorf("%w: action %s: %w", ErrInvalidParameters, name, err)
	}

	s := &Step{
		id:      uuid.New().String(),
		action:  a,
		args:    args.Clone(),
		filters: append([]*filter.Filter(nil), filters...),
		emitter: events.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// ID возвращает идентификатор шага.
func (s *Step) ID() string {
	return s.id
}

// Action возвращает имя action.
func (s *Step) Action() string {
	return s.action.Name
}

// Args возвращает копию аргументов.
func (s *Step) Args() engine.Args {
	return s.args.Clone()
}

// Filters возвращает копию цепочки фильтров.
func (s *Step) Filters() []*filter.Filter {
	return append([]*filter.Filter(nil), s.filters...)
}

// Label — метка для ошибок разрешения. Всегда содержит имя action.
func (s *Step) Label() string {
	return fmt.Sprintf("in step %s (%s)", s.action.Name, s.id)
}

// String возвращает представление вида
// {id: ..., action: compare, args: {operand=ref(fetch.limit)}, filters: [length()]}.
func (s *Step) String() string {
	args := make([]string, 0, len(s.args))
	for _, name := range s.args.Names() {
		args = append(args, name+"="+s.args[name].String())
	}

	filters := make([]string, len(s.filters))
	for i, f := range s.filters {
		filters[i] = f.String()
	}

	return fmt.Sprintf("{id: %s, action: %s, args: {%s}, filters: [%s]}",
		s.id, s.action.Name, strings.Join(args, ", "), strings.Join(filters, ", "))
}
