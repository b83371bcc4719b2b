package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/internal/webapi"
	"github.com/dissect-kit/dissect-go/pkg/version"
)

func runServe(args []string) error {
	fs, c := newFlagSet("serve", "Serve the HTTP API")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.resolve(fs)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	h, err := host.New(cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := webapi.New(webapi.Config{Listen: cfg.Listen, Version: version.Engine, Announce: cfg.Announce}, h, logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
