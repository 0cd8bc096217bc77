package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Flagship/internal/action"
	"github.com/shaiso/Flagship/internal/filter"
	"github.com/shaiso/Flagship/internal/schema"
	"github.com/shaiso/Flagship/internal/step"
)

// Catalog — каталоги actions и фильтров, с которыми работает CLI.
type Catalog struct {
	Actions *action.Registry
	Filters *filter.Registry
}

// DefaultCatalog возвращает встроенные actions и фильтры.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Actions: action.DefaultRegistry(),
		Filters: filter.DefaultRegistry(),
	}
}

// Builder создаёт step.Builder поверх каталогов.
func (c *Catalog) Builder(opts ...step.Option) *step.Builder {
	return step.NewBuilder(c.Actions, c.Filters, opts...)
}

// NewActionsCmd создаёт команду вывода каталога actions.
func NewActionsCmd(catalogFn func() *Catalog, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List available actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			actions := catalogFn().Actions.List()

			headers := []string{"NAME", "INPUT", "PARAMS", "DESCRIPTION"}
			rows := make([][]string, len(actions))
			for i, a := range actions {
				rows[i] = []string{a.Name, formatParam(a.Input), formatSchema(a.Params), a.Description}
			}

			out.Print(headers, rows, actions)
			return nil
		},
	}
}

// NewFiltersCmd создаёт команду вывода каталога фильтров.
func NewFiltersCmd(catalogFn func() *Catalog, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List available filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			defs := catalogFn().Filters.List()

			headers := []string{"NAME", "PARAMS", "DESCRIPTION"}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = []string{d.Name, formatSchema(d.Params), d.Description}
			}

			out.Print(headers, rows, defs)
			return nil
		},
	}
}

// formatParam печатает параметр как "name:type", обязательный помечается "*".
func formatParam(p schema.Param) string {
	t := string(p.Type)
	if t == "" {
		t = string(schema.TypeAny)
	}
	s := p.Name + ":" + t
	if p.Required {
		s += "*"
	}
	return s
}

func formatSchema(s schema.Schema) string {
	if len(s) == 0 {
		return "-"
	}
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = formatParam(p)
	}
	return strings.Join(parts, ", ")
}
