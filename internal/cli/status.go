package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/cryo/internal/api"
	"github.com/Paintersrp/cryo/internal/cliutil"
)

func newStatusCmd(ctx *context) *cobra.Command {
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status [group]",
		Short: "Display the freeze state of every group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*ctx.addr)
			report, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				report = filterStatus(report, args[0])
				if len(report.Groups) == 0 {
					return fmt.Errorf("unknown group %s", args[0])
				}
			}
			renderStatus(cmd, report, historyLimit)
			return nil
		},
	}
	cmd.Flags().IntVar(&historyLimit, "history", 0, "Show last N events")
	return cmd
}

// filterStatus narrows a report to one group's subtree. The group may be a
// full path or relative to the hierarchy root.
func filterStatus(report *api.StatusReport, group string) *api.StatusReport {
	full := group
	if !strings.HasPrefix(full, report.Hierarchy+"/") && full != report.Hierarchy {
		full = report.Hierarchy + "/" + group
	}
	filtered := &api.StatusReport{
		Hierarchy:   report.Hierarchy,
		GeneratedAt: report.GeneratedAt,
	}
	for _, g := range report.Groups {
		if g.Path == full || strings.HasPrefix(g.Path, full+"/") {
			filtered.Groups = append(filtered.Groups, g)
		}
	}
	for _, evt := range report.Events {
		if evt.Node == full || strings.HasPrefix(evt.Node, full+"/") {
			filtered.Events = append(filtered.Events, evt)
		}
	}
	return filtered
}

func renderStatus(cmd *cobra.Command, report *api.StatusReport, historyLimit int) {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tREQUESTED\tEFFECTIVE\tFROZEN\tPARKED\tDESCENDANTS")
	for _, group := range report.Groups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d/%d\t%d/%d\n",
			group.Path,
			cliutil.YesNo(group.RequestedFreeze),
			group.EffectiveFreeze,
			cliutil.YesNo(group.Frozen),
			group.ParkedTasks, group.TotalTasks,
			group.FrozenDescendants, group.TotalDescendants)
	}
	w.Flush()

	fmt.Fprintf(out, "\nHierarchy: %s\n", report.Hierarchy)
	fmt.Fprintf(out, "Generated at %s\n", report.GeneratedAt.Format(time.RFC3339))

	if historyLimit <= 0 || len(report.Events) == 0 {
		return
	}
	events := report.Events
	if len(events) > historyLimit {
		events = events[len(events)-historyLimit:]
	}
	fmt.Fprintln(out, "\nRecent events:")
	for _, evt := range events {
		fmt.Fprintf(out, "  %s\n", cliutil.EventRecordLine(evt))
	}
}
