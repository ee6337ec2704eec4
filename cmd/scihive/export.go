package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csheth/scihive/internal/api"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/notes"
	"github.com/csheth/scihive/internal/pdftext"
	"github.com/csheth/scihive/internal/session"
)

func exportCmd(cfg *config) *cobra.Command {
	var withoutPDF bool

	cmd := &cobra.Command{
		Use:   "export <paperId>",
		Short: "Save the highlights of a paper to the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kbPath, err := filepath.Abs(cfg.KnowledgeBase)
			if err != nil {
				return fmt.Errorf("resolve knowledge base path: %w", err)
			}
			client := api.New(api.Config{BaseURL: cfg.APIURL, Token: cfg.Token})
			store := highlight.NewStore(client, highlight.LogNotifier{})

			sc := session.Config{Store: store}
			if !withoutPDF {
				cache, err := pdftext.NewCache(pdftext.CacheConfig{Dir: cfg.CacheDir})
				if err != nil {
					return err
				}
				sc.Fetcher = cache
			}
			sess := session.New(sc)
			defer sess.Close()
			if err := sess.Open(cmd.Context(), args[0]); err != nil {
				return err
			}

			sections, _, _ := store.Sections()
			entry, err := notes.ExportHighlights(kbPath, notes.Paper{
				ID:       store.PaperID(),
				Title:    store.Metadata().Title,
				URL:      store.PaperURL(),
				Sections: sections,
			}, store.All())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d highlights of %q to %s\n", len(entry.Highlights), entry.Title, kbPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withoutPDF, "no-pdf", false, "skip downloading the PDF; the export then has no section list")
	return cmd
}
