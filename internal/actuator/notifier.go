// Package actuator forwards gesture state changes to the network-attached
// LED controller.
package actuator

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/classify"
)

// Defaults for the actuator endpoint.
const (
	// DefaultEndpoint is the LED control endpoint on the device.
	DefaultEndpoint = "http://192.168.4.1/led"
	// DefaultTimeout bounds how long a single notification may wait.
	DefaultTimeout = 2 * time.Second
	// queueSize bounds pending notifications. The debouncer already
	// guarantees at most one per real transition, so this never fills in
	// practice.
	queueSize = 16
)

// ErrUnreachable classifies every notification failure: connection refused,
// timeout, or a non-success HTTP status. Always non-fatal.
var ErrUnreachable = errors.New("actuator unreachable")

// Notifier issues best-effort state commands to the actuator. Notify never
// blocks the caller; requests are dispatched by a single worker goroutine
// so the order requests are sent matches the order transitions occurred.
// Response arrival order is not guaranteed and is only observed for logging.
type Notifier struct {
	endpoint string
	client   *http.Client
	queue    chan classify.Label
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// NewNotifier creates a Notifier posting to the given endpoint. An empty
// endpoint falls back to DefaultEndpoint.
func NewNotifier(endpoint string) *Notifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	n := &Notifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
		queue:    make(chan classify.Label, queueSize),
	}

	n.wg.Add(1)
	go n.run()

	return n
}

// Notify enqueues a state command for the given label. It returns
// immediately; the outcome of the request is logged, never surfaced.
// Calls after Close are dropped.
func (n *Notifier) Notify(label classify.Label) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	select {
	case n.queue <- label:
	default:
		log.Printf("actuator: queue full, dropping state %s", label.State())
	}
}

// Close stops the worker after draining pending notifications. Safe to
// call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()

	for label := range n.queue {
		if err := n.post(label); err != nil {
			log.Printf("actuator: %v", err)
		} else {
			log.Printf("actuator: state %s acknowledged", label.State())
		}
	}
}

// post sends a single form-urlencoded command: state=ON or state=OFF.
func (n *Notifier) post(label classify.Label) error {
	form := url.Values{"state": {label.State()}}

	resp, err := n.client.Post(n.endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	return nil
}
