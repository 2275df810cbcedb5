// Package overlay paints the hand skeleton and switch status onto video
// frames.
package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
)

// Bones is the skeleton connectivity graph over the 21 hand landmarks,
// following the MediaPipe hand connections: the palm outline plus one
// joint chain per finger.
var Bones = [][2]int{
	// Palm
	{detector.Wrist, detector.ThumbCMC},
	{detector.Wrist, detector.IndexMCP},
	{detector.Wrist, detector.PinkyMCP},
	{detector.IndexMCP, detector.MiddleMCP},
	{detector.MiddleMCP, detector.RingMCP},
	{detector.RingMCP, detector.PinkyMCP},
	// Thumb
	{detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP},
	{detector.ThumbIP, detector.ThumbTip},
	// Index
	{detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP},
	{detector.IndexDIP, detector.IndexTip},
	// Middle
	{detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP},
	{detector.MiddleDIP, detector.MiddleTip},
	// Ring
	{detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP},
	{detector.RingDIP, detector.RingTip},
	// Pinky
	{detector.PinkyMCP, detector.PinkyPIP},
	{detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// Style holds the drawing parameters for the overlay.
type Style struct {
	BoneColor     color.RGBA
	BoneThickness int
	JointColor    color.RGBA
	JointRadius   int
	TextColor     color.RGBA
	TextScale     float64
}

// DefaultStyle returns the stock overlay look: green bones, red joints,
// white status text.
func DefaultStyle() Style {
	return Style{
		BoneColor:     color.RGBA{0, 255, 0, 255},
		BoneThickness: 2,
		JointColor:    color.RGBA{255, 0, 0, 255},
		JointRadius:   4,
		TextColor:     color.RGBA{255, 255, 255, 255},
		TextScale:     1.0,
	}
}

// Renderer composes the per-frame overlay: skeleton bones first, joints on
// top, status text last so it is never painted over.
type Renderer struct {
	style Style
}

// NewRenderer creates a Renderer with the given style.
func NewRenderer(style Style) *Renderer {
	return &Renderer{style: style}
}

// Draw paints the hand skeleton and the current status onto frame. The
// hand may be nil (no detection this frame); the status text is always
// drawn. Landmark coordinates are normalized and scaled to the frame size.
func (r *Renderer) Draw(frame *gocv.Mat, hand *detector.HandLandmarks, label classify.Label) {
	if frame == nil || frame.Empty() {
		return
	}

	if hand != nil {
		r.drawSkeleton(frame, hand)
	}
	r.drawStatus(frame, label)
}

func (r *Renderer) drawSkeleton(frame *gocv.Mat, hand *detector.HandLandmarks) {
	width := frame.Cols()
	height := frame.Rows()

	at := func(i int) image.Point {
		p := hand.Points[i]
		return image.Point{
			X: int(p.X * float64(width)),
			Y: int(p.Y * float64(height)),
		}
	}

	for _, bone := range Bones {
		if bone[0] >= len(hand.Points) || bone[1] >= len(hand.Points) {
			continue
		}
		gocv.Line(frame, at(bone[0]), at(bone[1]), r.style.BoneColor, r.style.BoneThickness)
	}

	for i := range hand.Points {
		gocv.Circle(frame, at(i), r.style.JointRadius, r.style.JointColor, -1)
	}
}

func (r *Renderer) drawStatus(frame *gocv.Mat, label classify.Label) {
	text := "Status: " + label.State()
	origin := image.Point{X: 10, Y: 30}
	gocv.PutText(frame, text, origin, gocv.FontHersheySimplex, r.style.TextScale, r.style.TextColor, 2)
}
