package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/uuidtrans/internal/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups and replacements over HTTP",
	Long: `Index the workspace, watch it for changes, and serve the HTTP API:

  GET  /health
  GET  /snapshot
  GET  /elements/{id}
  GET  /names/{name}
  POST /replace/ids     (text/plain)
  POST /replace/names   (text/plain)
  POST /rebuild

Lookups answer 200 for one match, 404 for none, 409 for an ambiguous name and
400 for input that is not a lookup candidate.

Example:
  uuidtrans serve --addr 127.0.0.1:8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Workspace() != "" {
		report, err := a.Rebuild(ctx)
		if err != nil {
			return err
		}
		log.Info(log.CatServer, "Workspace indexed", "elements", report.Elements, "warnings", len(report.Warnings))
		if err := a.StartWatcher(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", addr)
	return a.Server().Serve(ctx, addr)
}

