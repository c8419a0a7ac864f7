package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sincaw/vodstream/cmd/vodstream/server/api"
	"github.com/sincaw/vodstream/cmd/vodstream/server/scan"
)

var (
	serveAddr string
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [options]",
		Short: "run http server",
		Args:  cobra.NoArgs,
		RunE:  serveCmdFunc,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Override listening address (ip:port)")

	return cmd
}

func serveCmdFunc(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		config.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts := []api.Option{api.WithRegistry(reg)}

	if config.CatalogEnabled() {
		db, err := openCatalog(config)
		if err != nil {
			return err
		}
		scanner, err := scan.New(db, config.Scanner)
		if err != nil {
			db.Close()
			return err
		}
		scanDone := scanner.Go(ctx)
		defer func() {
			stop()
			<-scanDone
			if err := db.Close(); err != nil {
				logger.Errorf("close catalog fail %v", err)
			}
		}()
		opts = append(opts, api.WithCatalog(db), api.WithScanner(scanner))
		logger.Infof("serving media library %s", config.Scanner.MediaRoot)
	}

	a, err := api.New(ctx, config, opts...)
	if err != nil {
		return err
	}
	logger.Infof("default video %s, chunk %d bytes", config.Stream.Video, config.Stream.MaxChunkBytes)
	return a.Serve()
}
