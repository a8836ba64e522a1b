package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"arzone/lib/config"
	"arzone/lib/logging"
	"arzone/lib/stage"
	"arzone/lib/streamdeck"
	"arzone/lib/tracking"
	"arzone/lib/xtouch"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var httpListen string
	var trackingListen string
	var runAndExit string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the overlay host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if httpListen != "" {
				cfg.HTTP.Listen = httpListen
			}
			if trackingListen != "" {
				cfg.Tracking.Listen = trackingListen
			}
			logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger, strings.Fields(runAndExit))
		},
	}

	cmd.Flags().StringVar(&httpListen, "listen", "", "HTTP listen address (overrides http.listen)")
	cmd.Flags().StringVar(&trackingListen, "tracking", "", "Tracking listen address (overrides tracking.listen)")
	cmd.Flags().StringVar(&runAndExit, "run-and-exit", "", "Run this command against the live host, then exit")
	return cmd
}

func lockPath(cfg *config.Config) string {
	if cfg.LockFile != "" {
		return cfg.LockFile
	}
	return filepath.Join(os.TempDir(), "arzone.lock")
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger, runAndExit []string) error {
	lock := flock.New(lockPath(cfg))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another arzone is already running (lock %s)", lock.Path())
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := stage.New(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := tracking.Listen(cfg.Tracking.Listen, logging.NewComponentLogger(logger, "tracking"))
	if err != nil {
		return fmt.Errorf("tracking listen: %w", err)
	}
	defer srv.Close()
	logger.Info("tracking listening", slog.String("addr", srv.Addr().String()))

	if cfg.StreamDeck.Enabled {
		closeDeck, err := attachStreamDeck(ctx, st, cfg, logging.NewComponentLogger(logger, "streamdeck"))
		if err != nil {
			return err
		}
		defer closeDeck()
	}
	if cfg.XTouch.Enabled {
		closeSurface, err := attachXTouch(st, cfg)
		if err != nil {
			return err
		}
		defer closeSurface()
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Listen)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	services := []func(context.Context) error{
		func(ctx context.Context) error { return st.Serve(ctx, ln) },
		func(ctx context.Context) error { return st.Run(ctx, srv.Events()) },
	}
	if len(runAndExit) > 0 {
		services = append(services, func(ctx context.Context) error {
			defer stop()
			c := exec.CommandContext(ctx, runAndExit[0], runAndExit[1:]...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c.Run()
		})
	}

	logger.Info("arzone started",
		slog.Int("zones", len(cfg.Zones)),
		slog.String("video", cfg.Video.Backend),
		slog.String("lock", lock.Path()))
	if err := runServices(ctx, services...); err != nil {
		return err
	}
	logger.Info("arzone stopped")
	return nil
}

// runServices runs every service until ctx is done. The first service to fail
// cancels the rest, and its error is returned.
func runServices(ctx context.Context, services ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error { return svc(gctx) })
	}
	return g.Wait()
}

func attachStreamDeck(ctx context.Context, st *stage.Stage, cfg *config.Config, logger *slog.Logger) (func(), error) {
	model, err := streamdeck.ModelByName(cfg.StreamDeck.Model)
	if err != nil {
		return nil, err
	}
	dev, err := streamdeck.Open(model)
	if err != nil {
		return nil, err
	}
	if err := dev.SetBrightness(byte(cfg.StreamDeck.Brightness)); err != nil {
		dev.Close()
		return nil, fmt.Errorf("streamdeck: brightness: %w", err)
	}
	panel, err := streamdeck.NewPanel(dev, st.Names())
	if err != nil {
		dev.Close()
		return nil, err
	}
	st.AddIndicator("streamdeck", panel.Draw)
	go func() {
		if err := panel.Run(ctx, st.Inputs()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("stream deck stopped", slog.Any("error", err))
		}
	}()
	logger.Info("stream deck attached",
		slog.String("model", dev.Model().Name),
		slog.String("product", dev.Product()),
		slog.String("serial", dev.SerialNumber()))
	return func() {
		if err := dev.ClearAllKeys(); err != nil {
			logger.Warn("stream deck clear failed", slog.Any("error", err))
		}
		dev.Close()
	}, nil
}

func attachXTouch(st *stage.Stage, cfg *config.Config) (func(), error) {
	inPort, err := xtouch.FindInPort(cfg.XTouch.Port)
	if err != nil {
		return nil, err
	}
	outPort, err := xtouch.FindOutPort(cfg.XTouch.Port)
	if err != nil {
		return nil, err
	}
	deviceID := uint8(xtouch.DeviceIDXTouch)
	if cfg.XTouch.Extender {
		deviceID = xtouch.DeviceIDExtender
	}
	out, err := xtouch.NewOutput(outPort, deviceID)
	if err != nil {
		return nil, err
	}
	surface, err := xtouch.NewSurface(out, st.Names())
	if err != nil {
		return nil, err
	}
	st.AddIndicator("xtouch", surface.Show)
	stopListen, err := surface.Listen(inPort, st.Inputs())
	if err != nil {
		return nil, fmt.Errorf("xtouch: listen: %w", err)
	}
	return func() {
		stopListen()
		midi.CloseDriver()
	}, nil
}
