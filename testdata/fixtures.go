// Package testdata provides synthetic video frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame dimensions match the default capture resolution.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// BlankFrame returns a black frame at the default capture resolution.
// The caller owns the Mat and must Close it.
func BlankFrame() *gocv.Mat {
	mat := gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
	return &mat
}

// SceneFrame returns a frame with a filled rectangle at the given offset.
// Shifting the offset between consecutive frames produces motion.
func SceneFrame(offset int) *gocv.Mat {
	mat := BlankFrame()
	rect := image.Rect(100+offset, 100, 300+offset, 300)
	gocv.Rectangle(mat, rect, color.RGBA{R: 200, G: 200, B: 200, A: 0}, -1)
	return mat
}

// Sequence returns n frames. When moving is true the scene shifts between
// frames so a motion detector sees activity; otherwise all frames are
// identical. The caller must Close every frame.
func Sequence(n int, moving bool) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		offset := 0
		if moving {
			offset = i * 20
		}
		frames[i] = SceneFrame(offset)
	}
	return frames
}

// CloseAll closes every frame in the slice.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
