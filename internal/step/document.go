package step

import (
	"errors"
	"fmt"

	"github.com/shaiso/Flagship/internal/action"
	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/filter"
)

// Document возвращает объектную форму шага.
//
// Аргументы идут в порядке имён, фильтры в порядке цепочки.
// Каталог actions не используется: это чисто структурное преобразование.
func (s *Step) Document() domain.StepDoc {
	doc := domain.StepDoc{
		ID:      s.id,
		Action:  s.action.Name,
		Args:    argsToDoc(s.args),
		Filters: make([]domain.FilterDoc, len(s.filters)),
	}
	for i, f := range s.filters {
		doc.Filters[i] = domain.FilterDoc{
			Action: f.Name(),
			Args:   argsToDoc(f.Args()),
		}
	}
	return doc
}

func argsToDoc(args engine.Args) []domain.ArgDoc {
	out := make([]domain.ArgDoc, 0, len(args))
	for _, name := range args.Names() {
		switch v := args[name].(type) {
		case engine.Reference:
			out = append(out, domain.ArgDoc{Name: name, Ref: &domain.RefDoc{Step: v.Step, Path: v.Path}})
		case engine.Literal:
			out = append(out, domain.ArgDoc{Name: name, Value: v.Value})
		}
	}
	return out
}

func argsFromDoc(docs []domain.ArgDoc) (engine.Args, error) {
	args := make(engine.Args, len(docs))
	for _, d := range docs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: argument with empty name", ErrMalformedDeclaration)
		}
		if _, dup := args[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate argument %q", ErrMalformedDeclaration, d.Name)
		}

		if d.IsReference() {
			if d.Value != nil {
				return nil, fmt.Errorf("%w: argument %q has both a value and a reference", ErrMalformedDeclaration, d.Name)
			}
			if d.Ref.Step == "" {
				return nil, fmt.Errorf("%w: argument %q references an empty step", ErrMalformedDeclaration, d.Name)
			}
			args[d.Name] = engine.Ref(d.Ref.Step, d.Ref.Path)
			continue
		}
		args[d.Name] = engine.Lit(d.Value)
	}
	return args, nil
}

// Builder создаёт шаги из документов.
//
// Хранит каталоги actions и фильтров, а также опции для каждого шага
// (получатель событий, логгер).
type Builder struct {
	Actions *action.Registry
	Filters *filter.Registry
	Options []Option
}

// NewBuilder создаёт Builder.
func NewBuilder(actions *action.Registry, filters *filter.Registry, opts ...Option) *Builder {
	return &Builder{
		Actions: actions,
		Filters: filters,
		Options: opts,
	}
}

// FromDocument создаёт шаг из объектной формы.
// Правила те же, что у New. Пустой ID в документе означает новый ID.
func (b *Builder) FromDocument(doc domain.StepDoc) (*Step, error) {
	args, err := argsFromDoc(doc.Args)
	if err != nil {
		return nil, err
	}

	filters := make([]*filter.Filter, 0, len(doc.Filters))
	for i, fd := range doc.Filters {
		fargs, err := argsFromDoc(fd.Args)
		if err != nil {
			return nil, fmt.Errorf("filter #%d: %w", i, err)
		}

		f, err := filter.New(b.Filters, fd.Action, fargs)
		switch {
		case errors.Is(err, filter.ErrUnknownFilter):
			return nil, fmt.Errorf("%w: filter #%d: %w", ErrMalformedDeclaration, i, err)
		case err != nil:
			return nil, fmt.Errorf("%w: filter #%d: %w", ErrInvalidParameters, i, err)
		}
		filters = append(filters, f)
	}

	opts := append(append([]Option(nil), b.Options...), WithID(doc.ID))
	return New(b.Actions, doc.Action, args, filters, opts...)
}
