package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docsflow/internal/model"
	"docsflow/internal/service"
)

func NewDocsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List, search and edit documents",
	}

	cmd.AddCommand(NewDocsListCommand(a))
	cmd.AddCommand(NewDocsSearchCommand(a))
	cmd.AddCommand(NewDocsGetCommand(a))
	cmd.AddCommand(NewDocsCreateCommand(a))
	cmd.AddCommand(NewDocsUpdateCommand(a))
	cmd.AddCommand(NewDocsDeleteCommand(a))
	cmd.AddCommand(NewDocsAttachCommand(a))

	return cmd
}

type listFlags struct {
	page   int
	limit  int
	asJSON bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Documents per page (default from config)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON")
}

func (f *listFlags) params() model.ListParams {
	return model.ListParams{Page: f.page, Limit: f.limit}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}
	return id, nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (a *app) printList(asJSON bool) error {
	if asJSON {
		return printJSON(a.out, struct {
			Documents  []model.Document `json:"documents"`
			Pagination model.Pagination `json:"pagination"`
		}{a.docs.Documents(), a.docs.Pagination()})
	}
	printDocuments(a.out, a.docs.Documents(), a.docs.Pagination())
	return nil
}

func (a *app) printOne(doc *model.Document, asJSON bool) error {
	if asJSON {
		return printJSON(a.out, doc)
	}
	printDocument(a.out, doc)
	return nil
}

func NewDocsListCommand(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.docs.Fetch(cmd.Context(), f.params()) {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			return a.printList(f.asJSON)
		},
	}
	f.register(cmd)
	return cmd
}

func NewDocsSearchCommand(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the loaded page by title, file name, content and type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.docs.Search(cmd.Context(), strings.Join(args, " "), f.params()) {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			return a.printList(f.asJSON)
		},
	}
	f.register(cmd)
	return cmd
}

func NewDocsGetCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			doc, ok := a.docs.FetchByID(cmd.Context(), id)
			if !ok {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			return a.printOne(doc, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func NewDocsCreateCommand(a *app) *cobra.Command {
	var (
		data model.CreateDocumentData
		tags string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document without a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data.Tags = splitTags(tags)
			doc, ok := a.docs.Create(cmd.Context(), data)
			if !ok {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			fmt.Fprintf(a.out, "Created document #%d\n", doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&data.Content, "content", "", "Body text")
	cmd.Flags().StringVar(&data.Type, "type", "", "Document type")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	return cmd
}

func NewDocsUpdateCommand(a *app) *cobra.Command {
	var title, content, docType, status, tags string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change selected fields of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			// Only flags given on the command line are sent.
			var data model.UpdateDocumentData
			flags := cmd.Flags()
			if flags.Changed("title") {
				data.Title = &title
			}
			if flags.Changed("content") {
				data.Content = &content
			}
			if flags.Changed("type") {
				data.Type = &docType
			}
			if flags.Changed("status") {
				s := model.Status(strings.ToLower(status))
				data.Status = &s
			}
			if flags.Changed("tags") {
				data.Tags = splitTags(tags)
			}

			doc, ok := a.docs.Update(cmd.Context(), id, data)
			if !ok {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			fmt.Fprintf(a.out, "Updated document #%d\n", doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New body text")
	cmd.Flags().StringVar(&docType, "type", "", "New document type")
	cmd.Flags().StringVar(&status, "status", "", "draft, published or archived")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags, replacing the current ones")
	return cmd
}

func NewDocsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !a.docs.Delete(cmd.Context(), id) {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			fmt.Fprintf(a.out, "Deleted document #%d\n", id)
			return nil
		},
	}
}

func NewDocsAttachCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <file>",
		Short: "Upload a file to an existing document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			file, err := service.LocalFile(args[1])
			if err != nil {
				return err
			}
			doc, ok := a.docs.UploadFile(cmd.Context(), id, file)
			if !ok {
				return failed(a.docs.Err(), a.docs.LastError())
			}
			fmt.Fprintf(a.out, "Attached %s to document #%d\n", file.Name(), doc.ID)
			return nil
		},
	}
}
