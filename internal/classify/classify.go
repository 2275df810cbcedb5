// Package classify turns hand landmark observations into the binary
// open-palm gesture label that drives the LED switch.
package classify

import (
	"errors"
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultOpenThreshold is the tip-to-base distance ratio above which a
// finger counts as extended. When a finger is stretched out its tip sits
// roughly 1.7-2.5x farther from the wrist than its base knuckle, and the
// ratio is insensitive to hand scale and rotation because numerator and
// denominator scale together. Tunable per camera setup via settings.
const DefaultOpenThreshold = 1.7

// ErrInvalidObservation is returned when an observation does not carry a
// usable set of landmarks. Callers treat it as "no hand this frame".
var ErrInvalidObservation = errors.New("invalid hand observation")

// Label is the binary gesture classification result.
type Label int

const (
	// Closed is the default label: not all fingers extended, LED off.
	Closed Label = iota
	// Open means all five fingers are extended, LED on.
	Open
)

// String returns the label name for logs.
func (l Label) String() string {
	if l == Open {
		return "OPEN"
	}
	return "CLOSED"
}

// State returns the actuator wire value for the label: "ON" or "OFF".
func (l Label) State() string {
	if l == Open {
		return "ON"
	}
	return "OFF"
}

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// fingerBounds maps each finger to the (tip, base) landmark pair used by
// the openness ratio. The base is the finger's MCP knuckle.
var fingerBounds = [NumFingers][2]int{
	Thumb:  {detector.ThumbTip, detector.ThumbMCP},
	Index:  {detector.IndexTip, detector.IndexMCP},
	Middle: {detector.MiddleTip, detector.MiddleMCP},
	Ring:   {detector.RingTip, detector.RingMCP},
	Pinky:  {detector.PinkyTip, detector.PinkyMCP},
}

// Classifier decides whether a hand observation shows an open palm.
// It is stateless and safe for concurrent use.
type Classifier struct {
	// OpenThreshold is the ratio above which a finger counts as extended.
	OpenThreshold float64
}

// NewClassifier returns a Classifier with the default openness threshold.
func NewClassifier() *Classifier {
	return &Classifier{OpenThreshold: DefaultOpenThreshold}
}

// Classify derives the gesture label from a single observation. The input
// must contain all 21 landmarks; anything shorter fails with
// ErrInvalidObservation rather than indexing out of range. The result
// depends only on the given points, never on previous frames.
func (c *Classifier) Classify(points []detector.Point3D) (Label, error) {
	states, err := c.FingerStates(points)
	if err != nil {
		return Closed, err
	}

	for _, open := range states {
		if !open {
			return Closed, nil
		}
	}
	return Open, nil
}

// FingerStates reports, per finger in thumb-to-pinky order, whether the
// finger is extended. A finger is open iff its openness ratio strictly
// exceeds the threshold, so a ratio exactly at the threshold reads closed.
func (c *Classifier) FingerStates(points []detector.Point3D) ([NumFingers]bool, error) {
	var states [NumFingers]bool

	if len(points) < detector.NumLandmarks {
		return states, ErrInvalidObservation
	}

	threshold := c.OpenThreshold
	if threshold <= 0 {
		threshold = DefaultOpenThreshold
	}

	wrist := points[detector.Wrist]
	for f, bounds := range fingerBounds {
		ratio, err := opennessRatio(points[bounds[0]], points[bounds[1]], wrist)
		if err != nil {
			return states, err
		}
		states[f] = ratio > threshold
	}

	return states, nil
}

// opennessRatio computes dist(tip, wrist) / dist(base, wrist). A base
// landmark coincident with the wrist has no meaningful ratio and marks the
// observation invalid.
func opennessRatio(tip, base, wrist detector.Point3D) (float64, error) {
	baseDist := dist3(base, wrist)
	if baseDist < 1e-10 {
		return 0, ErrInvalidObservation
	}
	return dist3(tip, wrist) / baseDist, nil
}

func dist3(a, b detector.Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
