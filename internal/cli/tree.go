package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/cryo/internal/api"
)

func newTreeCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render the group hierarchy with freeze annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*ctx.addr)
			report, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(report))
			return nil
		},
	}
	return cmd
}

// renderTree draws the hierarchy from the flat status report. Group paths
// are slash-separated and the report always contains every ancestor of
// each group, so children can be recovered by prefix.
func renderTree(report *api.StatusReport) string {
	byPath := make(map[string]api.GroupReport, len(report.Groups))
	children := make(map[string][]string)
	var roots []string
	for _, group := range report.Groups {
		byPath[group.Path] = group
		if i := strings.LastIndexByte(group.Path, '/'); i >= 0 {
			parent := group.Path[:i]
			children[parent] = append(children[parent], group.Path)
		} else {
			roots = append(roots, group.Path)
		}
	}
	for _, kids := range children {
		sort.Strings(kids)
	}
	sort.Strings(roots)

	var b strings.Builder
	for _, root := range roots {
		renderTreeNode(&b, byPath, children, root, "", true, true)
	}
	return b.String()
}

func renderTreeNode(b *strings.Builder, byPath map[string]api.GroupReport, children map[string][]string, path, prefix string, isRoot, isLast bool) {
	linePrefix := prefix
	if !isRoot {
		if isLast {
			linePrefix += "└─ "
		} else {
			linePrefix += "├─ "
		}
	}

	group := byPath[path]
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	fmt.Fprintf(b, "%s%s [%s]\n", linePrefix, name, describeGroup(group))

	nextPrefix := prefix
	if !isRoot {
		if isLast {
			nextPrefix += "   "
		} else {
			nextPrefix += "│  "
		}
	}
	kids := children[path]
	for i, child := range kids {
		renderTreeNode(b, byPath, children, child, nextPrefix, false, i == len(kids)-1)
	}
}

func describeGroup(group api.GroupReport) string {
	state := "thawed"
	switch {
	case group.Frozen:
		state = "frozen"
	case group.EffectiveFreeze > 0:
		state = "freezing"
	}
	parts := []string{state}
	if group.TotalTasks > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d parked", group.ParkedTasks, group.TotalTasks))
	}
	if group.EffectiveFreeze > 1 {
		parts = append(parts, fmt.Sprintf("depth %d", group.EffectiveFreeze))
	}
	return strings.Join(parts, ", ")
}
