package cli

import (
	"github.com/spf13/cobra"
)

// NewStepsCmd создаёт команду steps: список зарегистрированных типов шагов.
func NewStepsCmd(deps Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List registered step types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := deps.Registry().Names()

			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{name}
			}

			outputFn().Print([]string{"STEP"}, rows, names)
			return nil
		},
	}
}
