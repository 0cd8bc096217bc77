package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/events"
	"github.com/shaiso/Flagship/internal/step"
)

// NewConvertCmd создаёт команду перевода шага между формами.
func NewConvertCmd(catalogFn func() *Catalog, outputFn func() *Output) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a step declaration to json, xml or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := step.ParseFormat(to)
			if err != nil {
				return err
			}

			s, err := loadStep(catalogFn().Builder(), args[0])
			if err != nil {
				return err
			}

			data, err := step.Encode(s, target)
			if err != nil {
				return fmt.Errorf("encode %s: %w", target, err)
			}

			outputFn().Raw(data)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target format: json, xml, yaml (required)")
	cmd.MarkFlagRequired("to")

	return cmd
}

// NewValidateCmd создаёт команду проверки объявления шага.
func NewValidateCmd(catalogFn func() *Catalog, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a step declaration against the action and filter catalogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			s, err := loadStep(catalogFn().Builder(), args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Step is valid: %s", s.ID()))
			out.Print(
				[]string{"ID", "ACTION", "ARGS", "FILTERS"},
				[][]string{{s.ID(), s.Action(), fmt.Sprint(len(s.Args())), fmt.Sprint(len(s.Filters()))}},
				s.Document(),
			)
			return nil
		},
	}
}

// invokeResult — итог вызова для вывода.
type invokeResult struct {
	StepID string                  `json:"step_id"`
	Status domain.InvocationStatus `json:"status"`
	Output any                     `json:"output,omitempty"`
	Reason string                  `json:"reason,omitempty"`
	Error  string                  `json:"error,omitempty"`
	Events []events.Event          `json:"events"`
}

// NewInvokeCmd создаёт команду локального вызова шага.
func NewInvokeCmd(catalogFn func() *Catalog, outputFn func() *Output) *cobra.Command {
	var (
		input       string
		contextFile string
	)

	cmd := &cobra.Command{
		Use:   "invoke <file>",
		Short: "Invoke a step locally",
		Long: `Invoke a step locally.

--input is a JSON or YAML value passed as the primary input.
--context is a JSON or YAML file mapping step names to their outputs;
references in the step arguments are resolved against it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			value, err := parseValue(input)
			if err != nil {
				return fmt.Errorf("parse --input: %w", err)
			}

			acc, err := loadContext(contextFile)
			if err != nil {
				return err
			}

			rec := events.NewRecorder()
			s, err := loadStep(catalogFn().Builder(step.WithEmitter(rec)), args[0])
			if err != nil {
				return err
			}

			res := s.Invoke(cmd.Context(), value, acc)

			result := invokeResult{
				StepID: s.ID(),
				Status: domain.InvocationSucceeded,
				Output: res.Output,
				Events: rec.Events(),
			}
			if res.Failed() {
				result.Status = domain.InvocationFailed
				result.Reason = string(res.Failure.Kind)
				result.Error = res.Failure.Err.Error()
			}

			out.Print(
				[]string{"STEP", "STATUS", "OUTPUT", "REASON"},
				[][]string{{result.StepID, string(result.Status), fmt.Sprint(result.Output), result.Reason}},
				result,
			)

			if res.Failed() {
				return res.Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Primary input value (JSON or YAML)")
	cmd.Flags().StringVar(&contextFile, "context", "", "File with outputs of other steps")

	return cmd
}

// loadStep читает файл и собирает шаг. Форма определяется по расширению.
func loadStep(b *step.Builder, path string) (*step.Step, error) {
	format, err := step.FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read step: %w", err)
	}

	s, err := b.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// parseValue разбирает значение флага. Пустая строка — отсутствие значения.
// JSON — подмножество YAML, поэтому хватает одного декодера.
func parseValue(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// loadContext собирает аккумулятор из файла. Без файла — пустой аккумулятор.
func loadContext(path string) (*engine.Context, error) {
	acc := engine.NewContext(nil)
	if path == "" {
		return acc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}

	var outputs map[string]any
	if err := yaml.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("parse context %s: %w", path, err)
	}

	for name, output := range outputs {
		acc.AddStepResult(name, output, domain.InvocationSucceeded)
	}
	return acc, nil
}
