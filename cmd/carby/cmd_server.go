package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/carby/app/routes"
	"github.com/shashiranjanraj/carby/internal/kernel"
	"github.com/shashiranjanraj/carby/internal/server"
	"github.com/shashiranjanraj/carby/pkg/router"
)

// carby serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		k, err := kernel.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer k.Close()

		srv, err := server.New(":"+cfg.AppPort, k.Handler(), server.DefaultTimeouts())
		if err != nil {
			return err
		}

		bgCtx, cancelBg := context.WithCancel(ctx)
		k.StartBackground(bgCtx)

		err = srv.Serve(ctx)
		cancelBg()
		k.Wait()
		return err
	},
}

// carby route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(os.Stdout)
	},
}

// printRoutes registers the route table against empty handlers, which are
// never invoked, and prints it.
func printRoutes(out io.Writer) error {
	r := router.New()
	routes.Web(r, routes.Handlers{})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range r.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
