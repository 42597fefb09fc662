package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/cryo/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with hierarchy manifests",
	}
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a hierarchy manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "cryo.yaml"
			if flag := cmd.Flag("file"); flag != nil {
				if value := flag.Value.String(); value != "" {
					path = value
				}
			} else if inherited := cmd.InheritedFlags().Lookup("file"); inherited != nil {
				if value := inherited.Value.String(); value != "" {
					path = value
				}
			}

			if _, err := config.Load(path); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}

			return nil
		},
	}
	return cmd
}
