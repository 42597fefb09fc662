package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/cryo/internal/api"
)

func newFreezeCmd(ctx *context) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "freeze <group>",
		Short: "Request a freeze on a group and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreezeRequest(cmd, ctx, args[0], true, local)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Build the hierarchy from the manifest instead of contacting a daemon")
	return cmd
}

func newThawCmd(ctx *context) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "thaw <group>",
		Short: "Withdraw a group's freeze request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreezeRequest(cmd, ctx, args[0], false, local)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Build the hierarchy from the manifest instead of contacting a daemon")
	return cmd
}

func runFreezeRequest(cmd *cobra.Command, ctx *context, group string, freeze, local bool) error {
	ctrl, cleanup, err := resolveController(ctx, local)
	if err != nil {
		return err
	}
	defer cleanup()

	request := ctrl.Thaw
	if freeze {
		request = ctrl.Freeze
	}
	res, err := request(cmd.Context(), group)
	if err != nil {
		return err
	}
	printFreezeResult(cmd, res.Group, res.Frozen, freeze)
	return nil
}

// resolveController returns either a client for a running daemon or, in
// local mode, an in-process controller over a tree built from the manifest.
// Local mode applies the manifest's initial freezes and then the requested
// change; it is a one-shot inspection tool, not a daemon.
func resolveController(ctx *context, local bool) (api.Controller, func(), error) {
	if !local {
		return newAPIClient(*ctx.addr), func() {}, nil
	}
	manifest, err := ctx.loadManifest()
	if err != nil {
		return nil, nil, err
	}
	d, err := newDaemon(manifest, daemonOptions{})
	if err != nil {
		return nil, nil, err
	}
	return d.Controller(), d.close, nil
}

func printFreezeResult(cmd *cobra.Command, group string, frozen, freeze bool) {
	out := cmd.OutOrStdout()
	if freeze {
		if frozen {
			fmt.Fprintf(out, "%s frozen\n", group)
		} else {
			fmt.Fprintf(out, "%s freezing (tasks still parking)\n", group)
		}
		return
	}
	if frozen {
		fmt.Fprintf(out, "%s still frozen (ancestor freeze in effect)\n", group)
	} else {
		fmt.Fprintf(out, "%s thawed\n", group)
	}
}
