package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"github.com/fadedpez/pokerscribe/internal/app"
	"github.com/fadedpez/pokerscribe/internal/config"
	"github.com/fadedpez/pokerscribe/pkg/aggregate"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/pipeline"
	"github.com/fadedpez/pokerscribe/pkg/report"
	"github.com/fadedpez/pokerscribe/pkg/vision"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run analyzes one video and returns the process exit code. Deferred
// cleanup always runs before the code is returned.
func run(args []string) int {
	flags := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	reportPath := flags.String("report", "poker_analysis_report.txt", "Output report file")
	jsonPath := flags.String("json", "poker_hands.json", "Output JSON file, empty to skip")
	sampleRate := flags.Int("sample-rate", 0, "Process every Nth frame, overrides SAMPLE_RATE")
	debugDir := flags.String("debug-frames", "", "Write annotated frames to this directory")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: analyzer [flags] VIDEO\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}
	videoPath := flags.Arg(0)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	if *debugDir != "" {
		cfg.DebugFramesDir = *debugDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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

	source, err := vision.OpenVideoFile(videoPath, time.Now())
	if err != nil {
		log.Printf("Failed to open video: %v", err)
		return 1
	}
	defer source.Close()

	width, height := source.Size()
	pterm.Info.Printfln("Analyzing %s (%d frames, %.1f fps, %dx%d)", videoPath, source.FrameCount(), source.FPS(), width, height)

	batch := pipeline.NewBatch(a.BatchConfig(), builder, aggregate.New(), a.Recorder, a.Logger)
	records, runErr := batch.Run(ctx, source)
	if runErr != nil {
		pterm.Warning.Printfln("Analysis stopped early: %v", runErr)
		a.Alert(runErr)
	}

	if err := printSummary(records, batch.Stats().Snapshot()); err != nil {
		log.Printf("Error printing summary: %v", err)
	}

	if err := writeReport(ctx, a, *reportPath, videoPath, records); err != nil {
		log.Printf("Failed to write report: %v", err)
		return 1
	}
	pterm.Success.Printfln("Report: %s", *reportPath)

	if *jsonPath != "" {
		if err := writeJSON(*jsonPath, records); err != nil {
			log.Printf("Failed to export hands: %v", err)
			return 1
		}
		pterm.Success.Printfln("Hands: %s", *jsonPath)
	}
	return 0
}

func printSummary(records []*entities.HandRecord, stats pipeline.StatsSnapshot) error {
	pterm.DefaultSection.Println("Hands")
	data := pterm.TableData{{"Hand", "Players", "Pot", "Winner", "Frames"}}
	for _, r := range records {
		winner := r.Winner
		if winner == "" {
			winner = "-"
		}
		data = append(data, []string{
			fmt.Sprintf("#%d", r.HandNumber),
			fmt.Sprintf("%d", len(r.Roster)),
			fmt.Sprintf("$%.2f", r.TotalPot),
			winner,
			fmt.Sprintf("%d", r.FrameCount),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Players")
	players := pterm.TableData{{"Player", "Frames seen", "Actions read"}}
	for _, pa := range stats.Activity {
		players = append(players, []string{pa.Name, fmt.Sprintf("%d", pa.Appearances), fmt.Sprintf("%d", pa.Actions)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(players).Render(); err != nil {
		return err
	}

	pterm.Info.Printfln("Frames read: %d, processed: %d, field read failures: %d, errors: %d",
		stats.FramesCaptured, stats.FramesProcessed, stats.FieldFailures, stats.Errors)
	return nil
}

func writeReport(ctx context.Context, a *app.App, path, video string, records []*entities.HandRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := report.Header{Source: video, Generated: time.Now()}
	if err := report.WriteText(context.WithoutCancel(ctx), f, header, records, a.Repository); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, records []*entities.HandRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := report.ExportJSON(f, records); err != nil {
		return err
	}
	return f.Close()
}
