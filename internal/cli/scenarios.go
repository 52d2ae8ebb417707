package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benedictaitor/uiprobe/internal/scenario"
)

// ScenarioInfo is one entry in the scenarios listing.
type ScenarioInfo struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
}

// NewScenariosCommand creates the scenarios command, which lists the
// built-in suite in execution order.
func NewScenariosCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "scenarios",
		Short:         "List the built-in scenarios in execution order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scenario.BuiltinSuite()

			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			if formatter.Format == "json" {
				infos := make([]ScenarioInfo, 0, reg.Len())
				for i, sc := range reg.All() {
					infos = append(infos, ScenarioInfo{Order: i + 1, Name: sc.Name})
				}
				return formatter.Success(infos)
			}

			for _, sc := range reg.All() {
				fmt.Fprintln(formatter.Writer, sc.Name)
			}
			return nil
		},
	}
}
