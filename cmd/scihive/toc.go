package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/scihive/internal/pdftext"
	"github.com/csheth/scihive/internal/toc"
)

func tocCmd() *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "toc <pdf>",
		Short: "Print the table of contents detected in a local PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pdftext.Open(args[0])
			if err != nil {
				return err
			}
			res := toc.Extract(doc.Runs())

			var out any = res
			if tree {
				out = struct {
					Sections []toc.Node `json:"sections"`
					Failed   bool       `json:"failed"`
				}{toc.Tree(res.Sections), res.Failed}
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "nest subsections under their parents")
	return cmd
}
