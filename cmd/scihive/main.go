package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd(loadConfig()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(cfg *config) *cobra.Command {
	root := &cobra.Command{
		Use:           "scihive",
		Short:         "Read papers together and share highlights from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfg.APIURL, "api", cfg.APIURL, "API root (env SCIHIVE_API_URL)")
	flags.StringVar(&cfg.LiveURL, "live", cfg.LiveURL, "live updates websocket URL; derived from --api when empty (env SCIHIVE_LIVE_URL)")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "bearer token for the API (env SCIHIVE_TOKEN)")
	flags.StringVar(&cfg.KnowledgeBase, "kb", cfg.KnowledgeBase, "knowledge base JSON file for exports (env SCIHIVE_KB)")
	flags.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "PDF cache directory (env SCIHIVE_CACHE_DIR)")

	root.AddCommand(viewCmd(cfg))
	root.AddCommand(tocCmd())
	root.AddCommand(exportCmd(cfg))
	return root
}
