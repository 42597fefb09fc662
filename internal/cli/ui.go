package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/cryo/internal/tui"
)

func newUICmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Launch the interactive hierarchy viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !supportsInteractiveOutput(cmd) {
				return fmt.Errorf("ui requires an interactive terminal")
			}

			client := newAPIClient(*ctx.addr)
			return tui.Run(cmd.Context(), client)
		},
	}

	return cmd
}

func supportsInteractiveOutput(cmd *cobra.Command) bool {
	out := cmd.OutOrStdout()
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
