package classify

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	t.Run("all ratios above threshold classifies open", func(t *testing.T) {
		hand := detector.RatioHand([5]float64{2.0, 2.1, 2.3, 2.2, 1.9})

		label, err := c.Classify(hand.Points)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if label != Open {
			t.Errorf("expected Open, got %v", label)
		}
	})

	t.Run("any ratio at or below threshold classifies closed", func(t *testing.T) {
		cases := []struct {
			name   string
			ratios [5]float64
		}{
			{"pinky closed", [5]float64{2.0, 2.1, 2.3, 2.2, 1.5}},
			{"thumb closed", [5]float64{1.1, 2.1, 2.3, 2.2, 1.9}},
			{"all closed", [5]float64{0.8, 0.9, 1.0, 0.9, 0.8}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				hand := detector.RatioHand(tc.ratios)

				label, err := c.Classify(hand.Points)
				if err != nil {
					t.Fatalf("Classify() error = %v", err)
				}
				if label != Closed {
					t.Errorf("expected Closed, got %v", label)
				}
			})
		}
	})

	t.Run("open palm fixture classifies open", func(t *testing.T) {
		hand := detector.OpenPalmLandmarks()

		label, err := c.Classify(hand.Points)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if label != Open {
			t.Errorf("expected Open, got %v", label)
		}
	})

	t.Run("fist fixture classifies closed", func(t *testing.T) {
		hand := detector.FistLandmarks()

		label, err := c.Classify(hand.Points)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if label != Closed {
			t.Errorf("expected Closed, got %v", label)
		}
	})

	t.Run("short observation fails with ErrInvalidObservation", func(t *testing.T) {
		hand := detector.OpenPalmLandmarks()
		hand.Points = hand.Points[:15]

		_, err := c.Classify(hand.Points)
		if !errors.Is(err, ErrInvalidObservation) {
			t.Errorf("expected ErrInvalidObservation, got %v", err)
		}
	})

	t.Run("degenerate base landmark fails with ErrInvalidObservation", func(t *testing.T) {
		hand := detector.OpenPalmLandmarks()
		hand.Points[detector.IndexMCP] = hand.Points[detector.Wrist]

		_, err := c.Classify(hand.Points)
		if !errors.Is(err, ErrInvalidObservation) {
			t.Errorf("expected ErrInvalidObservation, got %v", err)
		}
	})

	t.Run("invariant under uniform scaling and translation", func(t *testing.T) {
		base := detector.RatioHand([5]float64{2.0, 2.1, 2.3, 2.2, 1.9})

		transformed := make([]detector.Point3D, len(base.Points))
		for i, p := range base.Points {
			transformed[i] = detector.Point3D{
				X: p.X*0.35 + 0.12,
				Y: p.Y*0.35 - 0.07,
				Z: p.Z*0.35 + 0.5,
			}
		}

		original, err := c.Classify(base.Points)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		scaled, err := c.Classify(transformed)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}

		if original != scaled {
			t.Errorf("scaling changed classification: %v vs %v", original, scaled)
		}
	})
}

func TestClassifier_ThresholdComparisonIsStrict(t *testing.T) {
	// Distances of 0.25 and 0.5 are exact in binary, so every finger's
	// ratio computes to exactly 2.0 with no rounding noise.
	dirs := [][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{-1, 0, 0},
		{0, -1, 0},
	}
	bounds := [][2]int{
		{detector.ThumbTip, detector.ThumbMCP},
		{detector.IndexTip, detector.IndexMCP},
		{detector.MiddleTip, detector.MiddleMCP},
		{detector.RingTip, detector.RingMCP},
		{detector.PinkyTip, detector.PinkyMCP},
	}

	points := make([]detector.Point3D, detector.NumLandmarks)
	for f, b := range bounds {
		d := dirs[f]
		points[b[1]] = detector.Point3D{X: d[0] * 0.25, Y: d[1] * 0.25, Z: d[2] * 0.25}
		points[b[0]] = detector.Point3D{X: d[0] * 0.5, Y: d[1] * 0.5, Z: d[2] * 0.5}
	}

	atBoundary := &Classifier{OpenThreshold: 2.0}
	label, err := atBoundary.Classify(points)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != Closed {
		t.Errorf("ratio equal to threshold should read Closed, got %v", label)
	}

	belowBoundary := &Classifier{OpenThreshold: 1.9}
	label, err = belowBoundary.Classify(points)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != Open {
		t.Errorf("ratio above threshold should read Open, got %v", label)
	}
}

func TestClassifier_FingerStates(t *testing.T) {
	c := NewClassifier()

	hand := detector.RatioHand([5]float64{2.0, 1.2, 2.3, 1.6, 1.9})

	states, err := c.FingerStates(hand.Points)
	if err != nil {
		t.Fatalf("FingerStates() error = %v", err)
	}

	want := [NumFingers]bool{true, false, true, false, true}
	if states != want {
		t.Errorf("FingerStates() = %v, want %v", states, want)
	}
}

func TestClassifier_ThresholdIsConfigurable(t *testing.T) {
	hand := detector.RatioHand([5]float64{1.5, 1.5, 1.5, 1.5, 1.5})

	strict := &Classifier{OpenThreshold: DefaultOpenThreshold}
	label, err := strict.Classify(hand.Points)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != Closed {
		t.Errorf("expected Closed at default threshold, got %v", label)
	}

	relaxed := &Classifier{OpenThreshold: 1.2}
	label, err = relaxed.Classify(hand.Points)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != Open {
		t.Errorf("expected Open at relaxed threshold, got %v", label)
	}
}

func TestLabel_Strings(t *testing.T) {
	if Open.State() != "ON" || Closed.State() != "OFF" {
		t.Errorf("unexpected wire states: %s, %s", Open.State(), Closed.State())
	}
	if Open.String() != "OPEN" || Closed.String() != "CLOSED" {
		t.Errorf("unexpected label names: %s, %s", Open.String(), Closed.String())
	}
}
