package overlay

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
)

func TestBones(t *testing.T) {
	t.Run("all bone endpoints are valid landmark indices", func(t *testing.T) {
		for i, bone := range Bones {
			for _, end := range bone {
				if end < 0 || end >= detector.NumLandmarks {
					t.Errorf("bone %d references invalid landmark %d", i, end)
				}
			}
		}
	})

	t.Run("every fingertip is connected", func(t *testing.T) {
		tips := []int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
		for _, tip := range tips {
			found := false
			for _, bone := range Bones {
				if bone[0] == tip || bone[1] == tip {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("fingertip %d has no bone", tip)
			}
		}
	})
}

func TestRenderer_Draw(t *testing.T) {
	r := NewRenderer(DefaultStyle())

	t.Run("draws skeleton and status without modifying frame size", func(t *testing.T) {
		frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		defer frame.Close()

		hand := detector.OpenPalmLandmarks()
		r.Draw(&frame, &hand, classify.Open)

		if frame.Cols() != 640 || frame.Rows() != 480 {
			t.Errorf("frame size changed: %dx%d", frame.Cols(), frame.Rows())
		}
	})

	t.Run("draws status even with no hand", func(t *testing.T) {
		frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		defer frame.Close()

		r.Draw(&frame, nil, classify.Closed)

		// The status text must leave non-zero pixels in the text region.
		region := frame.Region(image.Rect(0, 0, 320, 60))
		defer region.Close()

		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)

		if gocv.CountNonZero(gray) == 0 {
			t.Error("expected status text pixels in the top-left region")
		}
	})

	t.Run("ignores nil and empty frames", func(t *testing.T) {
		r.Draw(nil, nil, classify.Closed)

		empty := gocv.NewMat()
		defer empty.Close()
		r.Draw(&empty, nil, classify.Closed)
	})

	t.Run("tolerates truncated observations", func(t *testing.T) {
		frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		defer frame.Close()

		hand := detector.OpenPalmLandmarks()
		hand.Points = hand.Points[:5]
		r.Draw(&frame, &hand, classify.Closed)
	})
}
