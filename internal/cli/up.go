package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Build the hierarchy from the manifest and serve the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := ctx.loadManifest()
			if err != nil {
				return err
			}

			d, err := newDaemon(manifest, daemonOptions{addr: *ctx.addr})
			if err != nil {
				return err
			}
			ctx.setDaemon(d)
			defer ctx.clearDaemon(d)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Hierarchy %s loaded from %s\n", manifest.Hierarchy.Name, *ctx.manifestFile)
			for _, path := range manifest.GroupPaths() {
				fmt.Fprintf(out, "  group %s\n", path)
			}
			fmt.Fprintf(out, "Control API listening on %s\n", d.server.Addr())

			return d.run(cmd.Context(), out)
		},
	}
	return cmd
}
