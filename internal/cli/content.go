package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"freeradical-go/pkg/freeradical"

	"github.com/spf13/cobra"
)

func paginationFlags(cmd *cobra.Command, opts *freeradical.PaginationOptions) {
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "items per page")
}

func (a *App) pagesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "pages", Short: "Manage pages"}

	var listOpts freeradical.PaginationOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pages, err := a.client().ListPages(cmd.Context(), &listOpts)
			if err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "UUID\tSTATUS\tURL\tTITLE")
			for _, p := range pages {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.UUID, p.Status, p.URL, p.Title)
			}
			return tw.Flush()
		},
	}
	paginationFlags(list, &listOpts)

	get := &cobra.Command{
		Use:   "get <uuid>",
		Short: "Show one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client().GetPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(page)
		},
	}

	var input freeradical.CreatePageInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client().CreatePage(cmd.Context(), input)
			if err != nil {
				return err
			}
			a.success("Created page %s (%s)", page.UUID, page.URL)
			return nil
		},
	}
	create.Flags().StringVar(&input.Title, "title", "", "page title")
	create.Flags().StringVar(&input.URL, "url", "", "page URL, e.g. /about")
	create.Flags().StringVar(&input.Name, "name", "", "internal page name")
	create.Flags().StringVar(&input.Content, "content", "", "page body")
	create.Flags().StringVar(&input.MetaTitle, "meta-title", "", "SEO title")
	create.Flags().StringVar(&input.MetaDescription, "meta-description", "", "SEO description")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("url")

	var title, url, content, status string
	update := &cobra.Command{
		Use:   "update <uuid>",
		Short: "Change the given fields of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch freeradical.UpdatePageInput
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("url") {
				patch.URL = &url
			}
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("status") {
				s := freeradical.PageStatus(status)
				patch.Status = &s
			}
			page, err := a.client().UpdatePage(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			a.success("Updated page %s", page.UUID)
			return nil
		},
	}
	update.Flags().StringVar(&title, "title", "", "page title")
	update.Flags().StringVar(&url, "url", "", "page URL")
	update.Flags().StringVar(&content, "content", "", "page body")
	update.Flags().StringVar(&status, "status", "", "draft, published, archived or scheduled")

	remove := &cobra.Command{
		Use:   "delete <uuid>",
		Short: "Delete a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeletePage(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.success("Deleted page %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, remove)
	return cmd
}

func (a *App) modulesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "modules", Short: "Inspect page modules"}
	var opts freeradical.ModuleListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modules, err := a.client().ListModules(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "UUID\tPAGE\tTYPE\tTITLE")
			for _, m := range modules {
				fieldType := string(m.FieldType)
				if fieldType == "" {
					fieldType = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.UUID, m.PageUUID, fieldType, m.Title)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&opts.PageUUID, "page-uuid", "", "only modules of this page")
	paginationFlags(list, &opts.PaginationOptions)
	cmd.AddCommand(list)
	return cmd
}

func (a *App) mediaCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "media", Short: "Manage media files"}

	var listOpts freeradical.PaginationOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client().ListMedia(cmd.Context(), &listOpts)
			if err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "UUID\tTYPE\tSIZE\tNAME")
			for _, m := range items {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.UUID, m.MimeType, m.FileSize, m.OriginalFilename)
			}
			return tw.Flush()
		},
	}
	paginationFlags(list, &listOpts)

	var altText string
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			media, err := a.client().UploadMedia(cmd.Context(), freeradical.UploadMediaInput{
				Filename: filepath.Base(args[0]),
				Content:  f,
				AltText:  altText,
			})
			if err != nil {
				return err
			}
			a.success("Uploaded %s as %s", media.OriginalFilename, media.UUID)
			if media.CDNURL != "" {
				a.info("%s", media.CDNURL)
			}
			return nil
		},
	}
	upload.Flags().StringVar(&altText, "alt", "", "alternative text")

	remove := &cobra.Command{
		Use:   "delete <uuid>",
		Short: "Delete a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteMedia(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.success("Deleted media %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, upload, remove)
	return cmd
}
