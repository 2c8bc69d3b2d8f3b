package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/history/internal/client"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/ui"
	"github.com/alfredjeanlab/history/internal/views"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// printView prints a view as JSON or as a field table.
func printView(v *client.View) {
	if jsonOutput {
		printJSON(v)
		return
	}
	writeViewTable(os.Stdout, v)
}

func writeViewTable(w io.Writer, v *client.View) {
	fmt.Fprintf(w, "View:         %s\n", v.ID)
	fmt.Fprintf(w, "URL:          %s\n", v.URL)
	fmt.Fprintf(w, "Gate:         %s\n", ui.RenderGate(v.State))
	if v.ResetAt != nil {
		fmt.Fprintf(w, "Quota Resets: %s\n", v.ResetAt.Local().Format(timeLayout))
	}
	switch {
	case v.Session == nil:
		fmt.Fprintf(w, "Session:      %s\n", ui.RenderMuted("(none)"))
	case v.Session.Token != "":
		fmt.Fprintf(w, "Session:      %s [%s]\n", v.Session.Location, v.Session.Token)
	default:
		fmt.Fprintf(w, "Session:      %s\n", v.Session.Location)
	}
	if v.Resolving {
		fmt.Fprintf(w, "Resolving:    %s\n", ui.RenderMuted("yes"))
	}
	if p := v.Pending; p != nil {
		if p.Random {
			fmt.Fprintf(w, "Pending:      %s\n", ui.RenderMuted("random location"))
		} else {
			fmt.Fprintf(w, "Pending:      %s\n", p.Location)
		}
	}
	if n := v.Notification; n != nil {
		fmt.Fprintf(w, "Notification: [%s] %s\n", ui.RenderSeverity(n.Severity), n.Message)
	}
}

func printViewList(entries []views.Entry) {
	if jsonOutput {
		printJSON(entries)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tIDLE\tOPENED\tURL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.ID,
			(time.Duration(e.IdleSecs) * time.Second).String(),
			e.Opened.Local().Format(timeLayout),
			e.URL,
		)
	}
	w.Flush()
	fmt.Printf("\n%d views\n", len(entries))
}

func printTask(t *model.ResearchTask) {
	if jsonOutput {
		printJSON(t)
		return
	}
	writeTaskTable(os.Stdout, t)
}

func writeTaskTable(w io.Writer, t *model.ResearchTask) {
	fmt.Fprintf(w, "Token:       %s\n", t.Token)
	fmt.Fprintf(w, "Location:    %s\n", t.Location())
	fmt.Fprintf(w, "Status:      %s\n", ui.RenderStatus(t.Status))
	if t.CreatedBy != "" {
		fmt.Fprintf(w, "Created By:  %s\n", t.CreatedBy)
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", t.CreatedAt.Local().Format(timeLayout))
	}
}

func printTaskList(tasks []*model.ResearchTask, total int) {
	if jsonOutput {
		printJSON(tasks)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tSTATUS\tLOCATION\tCREATED BY\tCREATED")
	for _, t := range tasks {
		name := t.LocationName
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.Token,
			t.Status,
			name,
			t.CreatedBy,
			t.CreatedAt.Local().Format(timeLayout),
		)
	}
	w.Flush()
	fmt.Printf("\n%d tasks (%d total)\n", len(tasks), total)
}
