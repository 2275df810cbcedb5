package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

var (
	flagAddr      = flag.String("addr", ":8080", "dashboard listen address")
	flagCamera    = flag.Int("camera", -1, "camera device id (-1 uses the stored setting)")
	flagActuator  = flag.String("actuator", "", "actuator endpoint URL (empty uses the stored setting)")
	flagThreshold = flag.Float64("threshold", 0, "finger openness ratio threshold (0 uses the stored setting)")
	flagDB        = flag.String("db", "", "database path (empty uses ~/.mudra/mudra.db)")
	flagNoTray    = flag.Bool("no-tray", false, "run headless without the system tray")
	flagMirror    = flag.Bool("mirror", true, "mirror the camera feed")
	flagAutoStart = flag.Bool("start", false, "start the pipeline immediately")
)

func main() {
	flag.Parse()
	fmt.Println("Mudra - Hand Gesture LED Control")

	if err := run(); err != nil {
		log.Fatalf("mudra: %v", err)
	}
}

func run() error {
	dbPath := *flagDB
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir := filepath.Join(homeDir, ".mudra")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, "mudra.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	detConfig := detector.DefaultConfig()
	if v, err := st.Settings().GetFloat(store.SettingMinConfidence, detConfig.MinConfidence); err == nil && v > 0 {
		detConfig.MinConfidence = v
	}

	// Detector: try MediaPipe first, fall back to the mock detector so the
	// dashboard and actuator path stay usable without a Python runtime.
	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(detConfig); err == nil {
		det = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		det = detector.NewMockDetector()
	}

	classifier := classify.NewClassifier()
	classifier.OpenThreshold = resolveThreshold(st)

	notifier := actuator.NewNotifier(resolveActuatorURL(st))
	defer notifier.Close()

	camera := capture.NewCamera(capture.Config{
		DeviceID: resolveCameraID(st),
		Mirror:   *flagMirror,
	})

	motion := capture.NewMotionDetector(0)
	if v, err := st.Settings().GetFloat(store.SettingMotionThreshold, 0); err == nil {
		motion.SetThreshold(v)
	}

	events := server.NewEventsHandler()
	trayApp := tray.New()

	controller := pipeline.New(pipeline.Config{
		Camera:     camera,
		Detector:   det,
		Classifier: classifier,
		Notifier:   notifier,
		Renderer:   overlay.NewRenderer(overlay.DefaultStyle()),
		Motion:     motion,
		OnTransition: func(tr classify.Transition) {
			events.PublishTransition(tr)
			trayApp.SetLEDState(tr.To.State())
		},
		OnFrame: func(hand *detector.HandLandmarks, label classify.Label) {
			events.PublishFrame(hand, label)
		},
	})
	defer controller.Dispose()

	webDir := findWebDir()
	if webDir != "" {
		log.Printf("Serving static files from: %s", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  controller,
		Events:    events,
	})

	if *flagAutoStart {
		if err := controller.Start(); err != nil {
			return fmt.Errorf("failed to start pipeline: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{Addr: *flagAddr, Handler: srv}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s", *flagAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		controller.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if *flagNoTray {
		return g.Wait()
	}

	trayApp.OnToggle(func(running bool) {
		if running {
			if err := controller.Start(); err != nil {
				log.Printf("Failed to start pipeline: %v", err)
				trayApp.SetRunning(false)
			}
			return
		}
		controller.Stop()
	})
	trayApp.OnDashboard(func() {
		openBrowser(dashboardURL(*flagAddr))
	})
	trayApp.OnQuit(stop)

	// systray.Run must own the main goroutine. It returns after Quit.
	trayApp.Run()
	return g.Wait()
}

// resolveThreshold picks the classifier threshold: command line flag first,
// then the active calibration profile, then the stored setting.
func resolveThreshold(st *store.Store) float64 {
	if *flagThreshold > 0 {
		return *flagThreshold
	}
	if profile, err := st.Profiles().Active(); err == nil {
		return profile.OpenThreshold
	}
	threshold, err := st.Settings().GetFloat(store.SettingOpenThreshold, classify.DefaultOpenThreshold)
	if err != nil {
		return classify.DefaultOpenThreshold
	}
	return threshold
}

func resolveActuatorURL(st *store.Store) string {
	if *flagActuator != "" {
		return *flagActuator
	}
	if url, err := st.Settings().Get(store.SettingActuatorURL); err == nil {
		return url
	}
	return actuator.DefaultEndpoint
}

func resolveCameraID(st *store.Store) int {
	if *flagCamera >= 0 {
		return *flagCamera
	}
	if raw, err := st.Settings().Get(store.SettingCameraID); err == nil {
		if id, err := strconv.Atoi(raw); err == nil && id >= 0 {
			return id
		}
	}
	return 0
}

func dashboardURL(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
