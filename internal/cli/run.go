package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Perftool/internal/domain"
	"github.com/shaiso/Perftool/internal/engine"
	"github.com/shaiso/Perftool/internal/runner"
	"github.com/shaiso/Perftool/internal/scheduler"
)

// NewRunCmd создаёт команду run: выполнение плана из файла.
func NewRunCmd(deps Deps, outputFn func() *Output) *cobra.Command {
	var schedule string
	var persist bool
	var publish bool

	cmd := &cobra.Command{
		Use:   "run PLAN",
		Short: "Execute a plan and print the step summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()
			registry := deps.Registry()

			plan, err := engine.LoadPlan(args[0])
			if err != nil {
				return err
			}
			if err := runner.Validate(plan, registry); err != nil {
				return err
			}
			if schedule != "" {
				if err := scheduler.ValidateCronExpr(schedule); err != nil {
					return err
				}
			}

			cfg := runner.Config{
				Registry: registry,
				Logger:   deps.Logger,
			}

			if persist {
				store, closeFn, err := deps.Store(ctx)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer closeFn()
				cfg.Store = store
			}
			if publish {
				pub, closeFn, err := deps.Publisher(ctx)
				if err != nil {
					return fmt.Errorf("connect publisher: %w", err)
				}
				defer closeFn()
				cfg.Publisher = pub
			}

			r := runner.New(cfg)

			if schedule == "" {
				run, err := r.Run(ctx, plan)
				if run != nil {
					printRun(out, run)
				}
				return err
			}

			out.Success(fmt.Sprintf("Scheduled %q: %s", plan.Name, schedule))
			err = scheduler.Loop(ctx, schedule, func(ctx context.Context) (uuid.UUID, error) {
				run, err := r.Run(ctx, plan)
				if run == nil {
					return uuid.Nil, err
				}
				printRun(out, run)
				return run.ID, err
			}, deps.Logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Repeat the plan on a cron schedule (5 fields)")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the run in PostgreSQL")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish step and run events to RabbitMQ")

	return cmd
}

// printRun выводит сводку run: таблицу или run целиком в JSON.
func printRun(out *Output, run *domain.Run) {
	out.Print(summaryHeaders, summaryRows(run.Summary), run)

	msg := fmt.Sprintf("Run %s %s in %s (%d records)", run.ID, run.Status, run.Duration(), len(run.Results))
	if run.Error != "" {
		out.Error(msg + ": " + run.Error)
		return
	}
	out.Success(msg)
}
