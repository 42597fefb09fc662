package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/cryo/internal/api"
	"github.com/Paintersrp/cryo/internal/cliutil"
)

func newWatchCmd(ctx *context) *cobra.Command {
	var interval time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream freeze state transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*ctx.addr)
			printer := newEventPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), asJSON)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			first := true
			for {
				report, err := client.Status(cmd.Context())
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				printer.emitNew(report, first)
				first = false

				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Poll interval")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit events as JSON lines")
	return cmd
}

// eventPrinter tracks a high-water mark over polled status reports so each
// event is printed once. The initial poll only establishes the mark, so a
// fresh watch does not replay old history.
type eventPrinter struct {
	out      io.Writer
	enc      *json.Encoder
	stderr   io.Writer
	lastSeen time.Time
}

func newEventPrinter(out, stderr io.Writer, asJSON bool) *eventPrinter {
	p := &eventPrinter{out: out, stderr: stderr}
	if asJSON {
		p.enc = json.NewEncoder(out)
	}
	return p
}

func (p *eventPrinter) emitNew(report *api.StatusReport, first bool) {
	for _, evt := range report.Events {
		if !evt.Timestamp.After(p.lastSeen) {
			continue
		}
		p.lastSeen = evt.Timestamp
		if first {
			continue
		}
		if p.enc != nil {
			cliutil.EncodeRecord(p.enc, p.stderr, evt)
		} else {
			fmt.Fprintln(p.out, cliutil.EventRecordLine(evt))
		}
	}
}
