package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RixhersAjazi/schedulemaker/api/schedules"
	"github.com/RixhersAjazi/schedulemaker/app"
	"github.com/RixhersAjazi/schedulemaker/config"
	coremon "github.com/RixhersAjazi/schedulemaker/core/monitoring"
	"github.com/RixhersAjazi/schedulemaker/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "schedulemaker",
	Short:        "Course schedule generator",
	SilenceUsage: true,
	RunE:         serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and the MQTT responder",
	RunE:  serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); environment and defaults when empty")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI. A panic is reported to the monitor before the process
// dies.
func Execute() error {
	defer coremon.Recover()
	return rootCmd.Execute()
}

func newService() (*app.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	router := schedules.NewRouter(svc, schedules.Options{
		Token:        cfg.Server.Token,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	return svc.Run(ctx, router)
}
