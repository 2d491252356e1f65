package cli

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docsflow/internal/model"
	"docsflow/internal/service"
)

func NewDashboardCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize documents by status and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := service.NewDashboard(a.repo)
			summary, ok := d.Refresh(cmd.Context())
			if !ok {
				return failed(d.Err(), d.LastError())
			}
			if asJSON {
				return printJSON(a.out, summary)
			}
			a.printSummary(summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func (a *app) printSummary(s service.Summary) {
	fmt.Fprintf(a.out, "Documents: %d loaded of %d\n", s.Total, s.BackendTotal)
	fmt.Fprintf(a.out, "Storage:   %s\n\n", humanize.Bytes(uint64(max(s.TotalBytes, 0))))

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, st := range []model.Status{model.StatusDraft, model.StatusPublished, model.StatusArchived} {
		fmt.Fprintf(tw, "%s\t%d\n", st, s.ByStatus[st])
	}
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "TYPE\tCOUNT")
	for _, t := range slices.Sorted(maps.Keys(s.ByType)) {
		fmt.Fprintf(tw, "%s\t%d\n", t, s.ByType[t])
	}
	tw.Flush()

	if len(s.Recent) > 0 {
		fmt.Fprintln(a.out, "\nRecently updated:")
		for _, d := range s.Recent {
			fmt.Fprintf(a.out, "  #%d %s (%s)\n", d.ID, d.Title, d.UpdatedAt)
		}
	}
}
