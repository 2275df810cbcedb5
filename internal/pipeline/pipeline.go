// Package pipeline runs the per-frame gesture loop: acquire a frame,
// detect a hand, classify the palm, debounce the label, notify the
// actuator on transitions, and publish the rendered overlay.
package pipeline

import (
	"errors"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/overlay"
)

// Pipeline timing defaults.
const (
	// DefaultActiveFPS is the frame rate while a hand may be in view.
	DefaultActiveFPS = 15
	// DefaultIdleFPS is the frame rate while the motion gate sees nothing.
	DefaultIdleFPS = 5
	// DefaultIdleTimeout is how long after the last motion the pipeline
	// drops back to idle.
	DefaultIdleTimeout = 2 * time.Second
	// degradedStreak is the consecutive detector failure count that
	// triggers a degraded-session warning.
	degradedStreak = 3
)

// ErrDisposed is returned when starting a disposed controller.
var ErrDisposed = errors.New("pipeline is disposed")

// State is the lifecycle state of the pipeline controller.
type State int

const (
	Idle State = iota
	Starting
	Running
	Stopping
	Disposed
)

// String returns the state name for logs and the status API.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Notifier receives the new gesture label on every transition. Dispatch
// must not block the frame loop.
type Notifier interface {
	Notify(label classify.Label)
}

// Config wires the pipeline's collaborators.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Classifier *classify.Classifier
	Notifier   Notifier
	Renderer   *overlay.Renderer

	// Motion, when set, gates detection: frames without recent motion run
	// at IdleFPS and skip the detector entirely.
	Motion *capture.MotionDetector

	ActiveFPS   int
	IdleFPS     int
	IdleTimeout time.Duration

	// OnTransition is invoked for every debounced state change, after the
	// actuator dispatch has been issued.
	OnTransition func(tr classify.Transition)

	// OnFrame is invoked once per processed frame with the detected hand
	// (nil when none) and the current label. Used by the events endpoint.
	OnFrame func(hand *detector.HandLandmarks, label classify.Label)
}

// Controller owns one acquisition/detection session at a time. The camera
// and detector are exclusively owned by the controller while a session is
// running; stale results from a stopped session are never applied.
type Controller struct {
	config    Config
	debouncer *classify.Debouncer

	mu     sync.Mutex
	state  State
	epoch  uint64
	stopCh chan struct{}
	wg     sync.WaitGroup
	latest []byte
}

// New creates a Controller in the Idle state.
func New(config Config) *Controller {
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultActiveFPS
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = DefaultIdleFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.Classifier == nil {
		config.Classifier = classify.NewClassifier()
	}

	return &Controller{
		config:    config,
		debouncer: classify.NewDebouncer(),
	}
}

// Start opens the camera and begins the frame loop. Starting an already
// Starting or Running controller is a no-op. The controller reaches
// Running once the first frame has been read successfully.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Disposed:
		return ErrDisposed
	case Starting, Running:
		return nil
	case Stopping:
		return nil
	}

	if err := c.config.Camera.Open(); err != nil {
		return err
	}
	c.config.Camera.SetFPS(c.config.ActiveFPS)

	c.state = Starting
	c.epoch++
	c.stopCh = make(chan struct{})

	c.wg.Add(1)
	go c.run(c.epoch, c.stopCh)

	log.Println("pipeline: session started")
	return nil
}

// Stop halts the session: the loop exits, the camera closes, the gesture
// state resets to Closed/OFF and the published frame is cleared. Calling
// Stop while not running is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != Starting && c.state != Running {
		c.mu.Unlock()
		return
	}

	c.state = Stopping
	c.epoch++
	close(c.stopCh)
	c.stopCh = nil
	c.mu.Unlock()

	c.wg.Wait()
	c.teardown(Idle)
	log.Println("pipeline: session stopped")
}

// Dispose forces a stop-equivalent teardown from any state and closes the
// detector, and the notifier when it supports closing. A disposed
// controller accepts no further transitions.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.state == Disposed {
		c.mu.Unlock()
		return
	}

	active := c.state == Starting || c.state == Running
	if active {
		c.state = Stopping
		c.epoch++
		close(c.stopCh)
		c.stopCh = nil
	}
	c.mu.Unlock()

	if active {
		c.wg.Wait()
	}
	c.teardown(Disposed)

	if c.config.Detector != nil {
		if err := c.config.Detector.Close(); err != nil {
			log.Printf("pipeline: error closing detector: %v", err)
		}
	}
	if closer, ok := c.config.Notifier.(interface{ Close() }); ok {
		closer.Close()
	}

	log.Println("pipeline: disposed")
}

// teardown releases session resources and settles into the given state.
func (c *Controller) teardown(next State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.config.Camera.Close(); err != nil {
		log.Printf("pipeline: error closing camera: %v", err)
	}
	if c.config.Motion != nil {
		c.config.Motion.Reset()
	}

	c.debouncer.Reset()
	c.latest = nil

	// Disposed is terminal; a Stop racing a Dispose must not downgrade it.
	if c.state != Disposed {
		c.state = next
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the debounced gesture label.
func (c *Controller) Current() classify.Label {
	return c.debouncer.Current()
}

// LatestFrame returns a copy of the most recently published overlay frame
// as JPEG, or nil when no frame is available.
func (c *Controller) LatestFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest == nil {
		return nil
	}
	out := make([]byte, len(c.latest))
	copy(out, c.latest)
	return out
}

// run is the frame loop for one session. It exits when stopCh closes; any
// result produced under a stale epoch is discarded instead of applied.
func (c *Controller) run(epoch uint64, stopCh chan struct{}) {
	defer c.wg.Done()

	interval := time.Second / time.Duration(c.config.ActiveFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	activeMode := true
	lastMotion := time.Now()
	failStreak := 0
	degraded := false

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, err := c.config.Camera.ReadFrame()
		if err != nil {
			// Skipped frame: nothing to classify, held state untouched
			continue
		}

		c.markRunning(epoch)

		// Motion gate: drop to idle FPS when nothing moves
		if c.config.Motion != nil {
			moved, _ := c.config.Motion.Detect(frame)
			if moved {
				lastMotion = time.Now()
				if !activeMode {
					activeMode = true
					c.config.Camera.SetFPS(c.config.ActiveFPS)
					ticker.Reset(time.Second / time.Duration(c.config.ActiveFPS))
					log.Println("pipeline: motion, switching to active mode")
				}
			} else if activeMode && time.Since(lastMotion) > c.config.IdleTimeout {
				activeMode = false
				c.config.Camera.SetFPS(c.config.IdleFPS)
				ticker.Reset(time.Second / time.Duration(c.config.IdleFPS))
				log.Println("pipeline: no motion, switching to idle mode")
			}
		}

		// While idle no classification runs, so the debounced state is held
		// rather than observed: a motionless open palm stays ON.
		if !activeMode {
			c.publish(epoch, frame)
			continue
		}

		hands, err := c.config.Detector.Detect(frame)
		if err != nil {
			failStreak++
			if failStreak >= degradedStreak && !degraded {
				degraded = true
				log.Printf("pipeline: degraded session, %d consecutive detector failures: %v", failStreak, err)
			}
			c.publish(epoch, frame)
			continue
		}
		failStreak = 0
		degraded = false

		// Only the first detected hand drives the switch
		var hand *detector.HandLandmarks
		label := classify.Closed
		if len(hands) > 0 {
			got, cerr := c.config.Classifier.Classify(hands[0].Points)
			if cerr != nil {
				// Malformed observation: skip the emission entirely
				c.publish(epoch, frame)
				continue
			}
			hand = &hands[0]
			label = got
		}

		c.apply(epoch, frame, hand, label)
	}
}

// markRunning moves Starting to Running once the first frame is bound.
func (c *Controller) markRunning(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch == epoch && c.state == Starting {
		c.state = Running
	}
}

// apply commits one frame's result: debounce, notify on transition, render
// and publish the overlay. Results from a stale epoch are discarded so a
// frame submitted before Stop never touches a torn-down session. The
// frame, when present, is consumed and closed here.
func (c *Controller) apply(epoch uint64, frame *gocv.Mat, hand *detector.HandLandmarks, label classify.Label) {
	if frame != nil {
		defer frame.Close()
	}

	c.mu.Lock()
	if c.epoch != epoch || (c.state != Running && c.state != Starting) {
		c.mu.Unlock()
		return
	}

	tr, changed := c.debouncer.Observe(label)

	if frame != nil && c.config.Renderer != nil {
		c.config.Renderer.Draw(frame, hand, c.debouncer.Current())
		if buf, err := gocv.IMEncode(".jpg", *frame); err == nil {
			c.latest = append(c.latest[:0:0], buf.GetBytes()...)
			buf.Close()
		}
	}

	onTransition := c.config.OnTransition
	onFrame := c.config.OnFrame
	notifier := c.config.Notifier
	c.mu.Unlock()

	if changed {
		log.Printf("pipeline: gesture %s -> %s", tr.From, tr.To)
		if notifier != nil {
			notifier.Notify(tr.To)
		}
		if onTransition != nil {
			onTransition(tr)
		}
	}

	if onFrame != nil {
		onFrame(hand, label)
	}
}

// publish renders and publishes a frame without observing a new label.
// Used for frames that produced no classification (motion-idle, detector
// failure, malformed observation) so the debounced state is held.
func (c *Controller) publish(epoch uint64, frame *gocv.Mat) {
	if frame != nil {
		defer frame.Close()
	}

	c.mu.Lock()
	if c.epoch != epoch || (c.state != Running && c.state != Starting) {
		c.mu.Unlock()
		return
	}

	label := c.debouncer.Current()

	if frame != nil && c.config.Renderer != nil {
		c.config.Renderer.Draw(frame, nil, label)
		if buf, err := gocv.IMEncode(".jpg", *frame); err == nil {
			c.latest = append(c.latest[:0:0], buf.GetBytes()...)
			buf.Close()
		}
	}

	onFrame := c.config.OnFrame
	c.mu.Unlock()

	if onFrame != nil {
		onFrame(nil, label)
	}
}
