package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/runner"
	"github.com/shaiso/Perftool/internal/steps"
)

// Publisher публикует планы и события выполнения. Реализация: *mq.Publisher.
type Publisher interface {
	runner.Publisher
	PublishPlanSubmitted(ctx context.Context, payload mq.PlanSubmittedPayload) error
}

// Deps — зависимости команд. Соединения открываются лениво, только
// когда команде они нужны (--persist, --publish, submit).
type Deps struct {
	// Registry — типы шагов.
	Registry func() *steps.Registry

	// Store открывает хранилище результатов. Возвращаемая функция
	// закрывает соединение.
	Store func(ctx context.Context) (runner.Store, func(), error)

	// Publisher открывает соединение с RabbitMQ.
	Publisher func(ctx context.Context) (Publisher, func(), error)

	// Logger — логгер выполнения. По умолчанию slog.Default().
	Logger *slog.Logger

	// Stdout, Stderr — по умолчанию os.Stdout и os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRootCmd создаёт корневую команду perftool.
func NewRootCmd(version string, deps Deps) *cobra.Command {
	var jsonOutput bool

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	rootCmd := &cobra.Command{
		Use:           "perftool",
		Short:         "Perftool — benchmark plan runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	outputFn := func() *Output { return NewOutputTo(jsonOutput, deps.Stdout, deps.Stderr) }

	rootCmd.AddCommand(
		NewRunCmd(deps, outputFn),
		NewValidateCmd(deps, outputFn),
		NewSubmitCmd(deps, outputFn),
		NewStepsCmd(deps, outputFn),
	)

	return rootCmd
}
