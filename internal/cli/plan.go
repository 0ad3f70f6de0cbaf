package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Perftool/internal/engine"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/runner"
)

// NewValidateCmd создаёт команду validate: проверка плана без выполнения.
func NewValidateCmd(deps Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PLAN",
		Short: "Validate a plan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			plan, err := engine.LoadPlan(args[0])
			if err != nil {
				return err
			}
			if err := runner.Validate(plan, deps.Registry()); err != nil {
				return err
			}

			rows := make([][]string, len(plan.Steps))
			for i, s := range plan.Steps {
				name, _ := s.Config["custom_name"].(string)
				rows[i] = []string{strconv.Itoa(i), s.Name, name}
			}

			out.Print([]string{"POS", "STEP", "NAME"}, rows, plan)
			out.Success(fmt.Sprintf("Plan %q is valid: %d steps, %d iterations", plan.Name, len(plan.Steps), plan.Iterations()))
			return nil
		},
	}
}

// NewSubmitCmd создаёт команду submit: отправка плана воркерам через RabbitMQ.
func NewSubmitCmd(deps Deps, outputFn func() *Output) *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:   "submit PLAN",
		Short: "Submit a plan to the worker queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read plan: %w", err)
			}

			plan, err := engine.ParsePlanBytes(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := runner.Validate(plan, deps.Registry()); err != nil {
				return err
			}

			pub, closeFn, err := deps.Publisher(ctx)
			if err != nil {
				return fmt.Errorf("connect publisher: %w", err)
			}
			defer closeFn()

			// Исходный JSON отправляется как есть: числа конфигурации
			// воркер разберёт так же, как локальный run.
			err = pub.PublishPlanSubmitted(ctx, mq.PlanSubmittedPayload{
				Plan:    json.RawMessage(data),
				Persist: persist,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Plan %q submitted", plan.Name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "Ask the worker to store the run in PostgreSQL")

	return cmd
}
