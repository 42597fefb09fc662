package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Paintersrp/cryo/internal/api"
	"github.com/Paintersrp/cryo/internal/freezer"
)

// YesNo renders a boolean for tabular output.
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// EventLine renders a tree notification as a single log-style line.
func EventLine(evt freezer.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-12s  %s", evt.Timestamp.Format(time.RFC3339), evt.Type, evt.Node)
	if evt.Task != "" {
		fmt.Fprintf(&b, "  task=%s", evt.Task)
	}
	if evt.Err != nil {
		fmt.Fprintf(&b, "  error=%q", evt.Err.Error())
	}
	return b.String()
}

// EventRecordLine renders a status-history entry the same way EventLine
// renders a live notification.
func EventRecordLine(rec api.EventRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-12s  %s", rec.Timestamp.Format(time.RFC3339), rec.Type, rec.Node)
	if rec.Task != "" {
		fmt.Fprintf(&b, "  task=%s", rec.Task)
	}
	if rec.Message != "" {
		fmt.Fprintf(&b, "  error=%q", rec.Message)
	}
	return b.String()
}

// EncodeRecord writes an event record as one JSON line, reporting
// encoding failures to stderr rather than aborting the stream.
func EncodeRecord(enc *json.Encoder, stderr io.Writer, rec api.EventRecord) {
	if enc == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if err := enc.Encode(&rec); err != nil {
		fmt.Fprintf(stderr, "error: encode event: %v\n", err)
	}
}
