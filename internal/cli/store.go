package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/shaiso/Flagship/internal/config"
	"github.com/shaiso/Flagship/internal/mq"
	"github.com/shaiso/Flagship/internal/repo"
)

// NewStoreCmd создаёт группу команд хранилища шагов (PostgreSQL).
func NewStoreCmd(catalogFn func() *Catalog, outputFn func() *Output, configFn func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored steps",
	}

	cmd.AddCommand(
		newStoreSaveCmd(catalogFn, outputFn, configFn),
		newStoreListCmd(outputFn, configFn),
		newStoreDeleteCmd(outputFn, configFn),
	)

	return cmd
}

func newStoreSaveCmd(catalogFn func() *Catalog, outputFn func() *Output, configFn func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file>",
		Short: "Validate a step and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			// Сохраняем только то, что собирается в шаг
			s, err := loadStep(catalogFn().Builder(), args[0])
			if err != nil {
				return err
			}

			pool, err := openPool(cmd, configFn)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repo.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			if err := repo.NewStepRepo(pool).Save(cmd.Context(), s.Document()); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Step saved: %s", s.ID()))
			return nil
		},
	}
}

func newStoreListCmd(outputFn func() *Output, configFn func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			pool, err := openPool(cmd, configFn)
			if err != nil {
				return err
			}
			defer pool.Close()

			docs, err := repo.NewStepRepo(pool).List(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "ACTION", "ARGS", "FILTERS"}
			rows := make([][]string, len(docs))
			for i, d := range docs {
				rows[i] = []string{d.ID, d.Action, strconv.Itoa(len(d.Args)), strconv.Itoa(len(d.Filters))}
			}

			out.Print(headers, rows, docs)
			return nil
		},
	}
}

func newStoreDeleteCmd(outputFn func() *Output, configFn func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := openPool(cmd, configFn)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repo.NewStepRepo(pool).Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}

			outputFn().Success(fmt.Sprintf("Step deleted: %s", args[0]))
			return nil
		},
	}
}

// NewEnqueueCmd создаёт команду постановки вызова шага в очередь steps.invoke.
func NewEnqueueCmd(outputFn func() *Output, configFn func() (*config.Config, error)) *cobra.Command {
	var (
		runID   string
		stepRef string
		input   string
	)

	cmd := &cobra.Command{
		Use:   "enqueue <step-id>",
		Short: "Ask workers to invoke a stored step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			payload := mq.InvokePayload{StepID: args[0], StepRef: stepRef}

			if runID == "" {
				payload.RunID = uuid.New()
			} else {
				id, err := uuid.Parse(runID)
				if err != nil {
					return fmt.Errorf("invalid --run: %w", err)
				}
				payload.RunID = id
			}

			value, err := parseValue(input)
			if err != nil {
				return fmt.Errorf("parse --input: %w", err)
			}
			payload.Input = value

			cfg, err := configFn()
			if err != nil {
				return err
			}

			conn, err := mq.NewConnection(cfg.MQ.URL, slog.Default())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
				return err
			}
			if err := mq.NewPublisher(conn, slog.Default()).PublishInvoke(cmd.Context(), payload); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Invocation queued: run %s, step %s", payload.RunID, payload.StepID))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID (default: new run)")
	cmd.Flags().StringVar(&stepRef, "ref", "", "Name of the output in the run (default: step id)")
	cmd.Flags().StringVar(&input, "input", "", "Primary input value (JSON or YAML)")

	return cmd
}

func openPool(cmd *cobra.Command, configFn func() (*config.Config, error)) (*pgxpool.Pool, error) {
	cfg, err := configFn()
	if err != nil {
		return nil, err
	}
	return repo.NewPool(cmd.Context(), cfg.DB.URL)
}
