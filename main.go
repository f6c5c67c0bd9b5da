package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stride-data/gaitmat/api"
	"github.com/stride-data/gaitmat/internal/config"
	"github.com/stride-data/gaitmat/internal/db"
	"github.com/stride-data/gaitmat/internal/gait"
	"github.com/stride-data/gaitmat/internal/matserial"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "gaitmat.db", "SQLite database file")
	tuningFile  = flag.String("config", "", "Tuning config JSON (defaults apply when empty)")
	serialPort  = flag.String("serial", "", "Mat serial port path; empty disables acquisition")
	replayFile  = flag.String("replay", "", "Replay a captured byte stream instead of opening a port")
	walkwayMode = flag.Bool("walkway", false, "Assemble three-segment walkway frames (32x96)")
	sessionID   = flag.String("session", "", "Store acquired recordings under this session ID")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyTuningConfig()
	if *tuningFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}
	geo, err := tuning.Geometry()
	if err != nil {
		log.Fatalf("Invalid mat geometry: %v", err)
	}
	analyzer := gait.NewAnalyzer(geo, tuning.AnalyzerConfig(), nil)

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Acquisition: read the mat stream, then analyse the whole recording
	// once the stream ends or shutdown is requested.
	if *serialPort != "" || *replayFile != "" {
		port, source, err := openAcquisitionPort()
		if err != nil {
			log.Fatalf("Failed to open mat stream: %v", err)
		}
		defer port.Close()

		rate := tuning.GetSamplingRate()
		wg.Add(1)
		go func() {
			defer wg.Done()
			runAcquisition(ctx, port, source, rate, analyzer, database)
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(analyzer, database).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// openAcquisitionPort returns the frame source: a real serial port, or a
// mock replaying a captured stream for development without hardware.
func openAcquisitionPort() (matserial.Porter, string, error) {
	if *replayFile != "" {
		data, err := os.ReadFile(*replayFile)
		if err != nil {
			return nil, "", err
		}
		return &matserial.MockPort{ReadData: data}, *replayFile, nil
	}
	port, err := matserial.OpenPort(*serialPort)
	if err != nil {
		return nil, "", err
	}
	return port, *serialPort, nil
}

// runAcquisition collects frames from the mat until the stream ends or
// shutdown is requested, then analyses the recording. With -session set the
// result is stored; otherwise the summary is only logged.
func runAcquisition(ctx context.Context, port matserial.Porter, source string, rate float64, analyzer *gait.Analyzer, database *db.DB) {
	cfg := matserial.Config{SamplingRate: rate, WalkwayMode: *walkwayMode}
	monitor := matserial.NewMonitor(port, cfg)

	frameChan := make(chan gait.PressureFrame, 256)
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx, frameChan) }()

	var frames []gait.PressureFrame
collect:
	for {
		select {
		case f := <-frameChan:
			frames = append(frames, f)
		case err := <-done:
			if err != nil && err != context.Canceled {
				log.Printf("acquisition error: %v", err)
			}
			// Drain frames emitted before the monitor returned.
			for {
				select {
				case f := <-frameChan:
					frames = append(frames, f)
				default:
					break collect
				}
			}
		}
	}

	log.Printf("acquisition finished: %d frames from %s", len(frames), source)
	if len(frames) == 0 {
		return
	}

	res, err := analyzer.AnalyzeFrames(frames, rate, source, nil)
	if err != nil {
		log.Printf("failed to analyse recording: %v", err)
		return
	}
	log.Printf("recording analysed: type=%s walking=%t steps=%d stability=%.1f%%",
		res.TestType, res.Gait.IsWalking, res.Gait.StepCount, res.Balance.StabilityIndexPct)

	if *sessionID != "" {
		id, err := database.SaveResult(*sessionID, res)
		if err != nil {
			log.Printf("failed to store recording: %v", err)
			return
		}
		log.Printf("stored result %s under session %s", id, *sessionID)
	}
}
