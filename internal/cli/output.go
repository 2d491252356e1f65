package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"docsflow/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDocuments(w io.Writer, docs []model.Document, p model.Pagination) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tTYPE\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", d.ID, d.Title, d.Status, d.Type, d.UpdatedAt)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nPage %d, %d per page, %d total", p.Page, p.Limit, p.Total)
	if p.HasNext() {
		fmt.Fprintf(w, " (next: --page %d)", p.Page+1)
	}
	fmt.Fprintln(w)
}

func printDocument(w io.Writer, d *model.Document) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", d.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", d.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", d.Status)
	if d.Type != "" {
		fmt.Fprintf(tw, "Type:\t%s\n", d.Type)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(d.Tags, ", "))
	}
	if d.FileName != "" {
		fmt.Fprintf(tw, "File:\t%s (%s)\n", d.FileName, humanize.Bytes(uint64(max(d.FileSize, 0))))
	}
	if d.FileURL != "" {
		fmt.Fprintf(tw, "URL:\t%s\n", d.FileURL)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", d.CreatedAt)
	fmt.Fprintf(tw, "Updated:\t%s\n", d.UpdatedAt)
	tw.Flush()
	if d.Content != "" {
		fmt.Fprintf(w, "\n%s\n", d.Content)
	}
}
