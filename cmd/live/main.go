package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"github.com/fadedpez/pokerscribe/internal/api"
	"github.com/fadedpez/pokerscribe/internal/app"
	"github.com/fadedpez/pokerscribe/internal/config"
	"github.com/fadedpez/pokerscribe/pkg/aggregate"
	"github.com/fadedpez/pokerscribe/pkg/pipeline"
	"github.com/fadedpez/pokerscribe/pkg/scheduler"
	"github.com/fadedpez/pokerscribe/pkg/vision"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred cleanup has run
func run() int {
	device := flag.String("device", "0", "Capture device index or stream URL")
	serve := flag.Bool("serve", true, "Serve the HTTP API and hand feed while capturing")
	refresh := flag.Duration("refresh", time.Second, "Console stats refresh interval")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Printf("Failed to initialize: %v", err)
		return 1
	}
	defer a.Shutdown()

	builder, _, err := a.Builder()
	if err != nil {
		log.Printf("Failed to start OCR: %v", err)
		return 1
	}
	if err := a.Start(ctx); err != nil {
		log.Printf("Failed to start: %v", err)
		return 1
	}

	source, err := vision.OpenDevice(*device)
	if err != nil {
		log.Printf("Failed to open capture device: %v", err)
		return 1
	}
	defer source.Close()

	live := pipeline.NewLive(a.LiveConfig(), builder, aggregate.New(), a.Recorder, a.Logger)

	if *serve {
		srv := &http.Server{
			Addr:              cfg.APIAddr,
			Handler:           api.NewServer(a.Repository, a.Hub, a.Logger).WithLiveStats(live.Stats().Snapshot).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("HTTP server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		pterm.Info.Printfln("API listening on %s", cfg.APIAddr)
	}

	// SIGUSR1 toggles capture without dropping the open hand
	toggle := make(chan os.Signal, 1)
	signal.Notify(toggle, syscall.SIGUSR1)
	defer signal.Stop(toggle)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-toggle:
				if live.Paused() {
					live.Resume()
				} else {
					live.Pause()
				}
			}
		}
	}()

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		log.Printf("Failed to start console: %v", err)
		return 1
	}
	console := scheduler.NewScheduler(a.Logger)
	console.AddQuietTask("console", *refresh, func(context.Context) error {
		area.Update(renderStats(live.Stats().Snapshot(), live.Paused()))
		return nil
	})
	console.Start(ctx)

	pterm.Info.Printfln("Capturing from %s every %s. Press CTRL-C to exit.", *device, cfg.SampleInterval)
	runErr := live.Run(ctx, source)

	console.Stop()
	area.Update(renderStats(live.Stats().Snapshot(), live.Paused()))
	area.Stop()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		a.Alert(runErr)
		log.Printf("Capture failed: %v", runErr)
		return 1
	}
	pterm.Success.Println("Capture stopped")
	return 0
}

func renderStats(s pipeline.StatsSnapshot, paused bool) string {
	state := pterm.LightGreen("capturing")
	if paused {
		state = pterm.LightYellow("paused")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status:           %s\n", state)
	fmt.Fprintf(&b, "Frames captured:  %d\n", s.FramesCaptured)
	fmt.Fprintf(&b, "Frames unchanged: %d\n", s.FramesUnchanged)
	fmt.Fprintf(&b, "Frames dropped:   %d\n", s.FramesDropped)
	fmt.Fprintf(&b, "Frames processed: %d\n", s.FramesProcessed)
	fmt.Fprintf(&b, "Hands recorded:   %s\n", pterm.LightCyan(s.HandsRecorded))
	fmt.Fprintf(&b, "Field failures:   %d\n", s.FieldFailures)
	fmt.Fprintf(&b, "Errors:           %d\n", s.Errors)
	fmt.Fprintf(&b, "Players seen:     %s", strings.Join(s.Players, ", "))
	return pterm.DefaultBox.WithTitle("pokerscribe live").Sprint(b.String())
}
