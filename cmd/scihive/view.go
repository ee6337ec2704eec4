package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/scihive/internal/api"
	"github.com/csheth/scihive/internal/bus"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/live"
	"github.com/csheth/scihive/internal/pdftext"
	"github.com/csheth/scihive/internal/session"
	"github.com/csheth/scihive/internal/tui"
)

func viewCmd(cfg *config) *cobra.Command {
	var noAltScreen bool
	var logFile string
	var visibility string
	var jobTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "view <paperId>",
		Short: "Open a paper with its shared highlights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vis, err := parseVisibility(visibility)
			if err != nil {
				return err
			}
			wsURL, err := cfg.liveURL()
			if err != nil {
				return err
			}
			kbPath, err := filepath.Abs(cfg.KnowledgeBase)
			if err != nil {
				return fmt.Errorf("resolve knowledge base path: %w", err)
			}
			restoreLog, err := redirectLog(logFile)
			if err != nil {
				return err
			}
			defer restoreLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := api.New(api.Config{BaseURL: cfg.APIURL, Token: cfg.Token})
			var notifications bus.Bus[highlight.Notification]
			store := highlight.NewStore(client, highlight.NotifierFunc(func(n highlight.Notification) {
				highlight.LogNotifier{}.Notify(n)
				notifications.Publish(n)
			}))

			rooms := live.New(live.Config{URL: wsURL, Token: cfg.Token}, store.ApplyLiveEvent)
			defer rooms.Close()
			go func() {
				if err := rooms.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, live.ErrClosed) {
					log.Printf("[live] stopped: %v", err)
				}
			}()

			cache, err := pdftext.NewCache(pdftext.CacheConfig{Dir: cfg.CacheDir})
			if err != nil {
				return err
			}
			sess := session.New(session.Config{Store: store, Rooms: rooms, Fetcher: cache})
			defer sess.Close()

			opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
			if !noAltScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			log.Printf("[main] viewing %s via %s", args[0], client.BaseURL())
			return tui.Run(ctx, tui.Config{
				Session:           sess,
				PaperID:           args[0],
				KnowledgeBasePath: kbPath,
				Visibility:        vis,
				JobTimeout:        jobTimeout,
				Contacts:          client,
			}, &notifications, opts...)
		},
	}
	cmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	cmd.Flags().StringVar(&logFile, "log-file", defaultLogFile(), "write logs here instead of the terminal; empty discards them")
	cmd.Flags().StringVar(&visibility, "visibility", "public", "visibility of new comments: public|private|anonymous|group:<id>")
	cmd.Flags().DurationVar(&jobTimeout, "job-timeout", 45*time.Second, "timeout for API calls started from the reader")
	return cmd
}
