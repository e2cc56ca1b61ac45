package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flagward/flagward/pkg/runtime"
	"github.com/flagward/flagward/pkg/service"
	"github.com/flagward/flagward/pkg/source"
	"github.com/flagward/flagward/pkg/store"
)

func findService(name string) (service.IService, error) {
	registeredServices := map[string]service.IService{
		"http": &service.HTTPService{
			HTTPServiceConfiguration: &service.HTTPServiceConfiguration{
				Port: viper.GetInt32("port"),
			},
		},
	}
	v, ok := registeredServices[name]
	if !ok {
		return nil, errors.New("no service-provider set")
	}
	log.Debugf("Using %s service-provider", name)
	return v, nil
}

func findSource(name string) (source.ISource, error) {
	registeredSources := map[string]source.ISource{
		"filepath": &source.FilePathSource{
			URI: viper.GetString("uri"),
		},
	}
	v, ok := registeredSources[name]
	if !ok {
		return nil, errors.New("no source-provider set")
	}
	log.Debugf("Using %s source-provider", name)
	return v, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the flagward service",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := findSource(viper.GetString("source-provider"))
		if err != nil {
			return err
		}
		svc, err := findService(viper.GetString("service-provider"))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		manager := store.NewManager()
		rt := &runtime.Runtime{
			Manager:      manager,
			Source:       src,
			SyncInterval: viper.GetString("sync-interval"),
		}
		if err := rt.Start(ctx); err != nil {
			return err
		}

		errc := make(chan error, 1)
		go func() {
			errc <- svc.Serve(ctx, manager)
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errc:
			return err
		case s := <-sig:
			log.Infof("received %s, shutting down", s)
			cancel()
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().Int32P("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringP("service-provider", "s", "http", "Set a serve provider e.g. http")
	serveCmd.Flags().StringP("source-provider", "y", "filepath", "Set a source provider e.g. filepath")
	serveCmd.Flags().StringP("uri", "f", "", "Set a source provider uri to read flag definitions from")
	serveCmd.Flags().StringP("sync-interval", "i", "@every 30s", "Cron spec for periodic definition reloads, empty to disable")
	_ = viper.BindPFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}
