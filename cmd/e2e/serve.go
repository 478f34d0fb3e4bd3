package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuitang/internet-e2e/internal/config"
	"github.com/kuitang/internet-e2e/internal/demosite"
	"github.com/kuitang/internet-e2e/internal/obs"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var addr, envName, dir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo site",
		Long: `Serve the login, secure area, add/remove elements, checkboxes and dropdown
pages on --addr. The default address lines up with the default BASE_URL.
The demo account is USERNAME/PASSWORD from the resolved configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(envName, dir)
			if err != nil {
				return err
			}
			obs.SetLevel(cfg.LogLevel)
			if !cmd.Flags().Changed("addr") {
				addr = cfg.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, demosite.Options{
				Username: cfg.Username,
				Password: cfg.Password,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	cmd.Flags().StringVar(&envName, "env", "", "environment name (default $NODE_ENV or local)")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding env.<name> files")
	return cmd
}

func serve(ctx context.Context, addr string, opts demosite.Options) error {
	log := obs.Pkg("e2e")
	site, err := demosite.New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           site.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("demosite_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info("demosite_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func resolveConfig(envName, dir string) (*config.Config, error) {
	var (
		env *config.Env
		err error
	)
	if envName == "" {
		env, err = config.LoadFromEnvironment(dir)
	} else {
		env, err = config.Load(dir, envName)
	}
	if err != nil {
		return nil, err
	}
	return config.FromEnv(env)
}
