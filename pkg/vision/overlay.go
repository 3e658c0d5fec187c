package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-bullseye/pkg/rig"
	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

var (
	green  = color.RGBA{0, 255, 0, 0}
	yellow = color.RGBA{255, 255, 0, 0}
	red    = color.RGBA{255, 0, 0, 0}
	white  = color.RGBA{255, 255, 255, 0}
	cyan   = color.RGBA{0, 255, 255, 0}
)

// DrawOverlay renders the dead zone, the target box and the HUD onto img.
func DrawOverlay(img *gocv.Mat, dz tracking.DeadZone, snap rig.Snapshot) {
	st := snap.Status
	ring := yellow
	thickness := 1
	if st.Locked {
		ring = green
		thickness = 2
	}
	center := image.Pt(dz.Center.X, dz.Center.Y)
	gocv.Circle(img, center, dz.Radius, ring, thickness)
	gocv.Line(img, image.Pt(center.X-5, center.Y), image.Pt(center.X+5, center.Y), ring, 1)
	gocv.Line(img, image.Pt(center.X, center.Y-5), image.Pt(center.X, center.Y+5), ring, 1)

	if st.Target != nil {
		box := image.Rect(st.Target.X, st.Target.Y, st.Target.X+st.Target.Width, st.Target.Y+st.Target.Height)
		boxColor := yellow
		thick := 2
		if st.Locked {
			boxColor = green
			thick = 3
		}
		gocv.Rectangle(img, box, boxColor, thick)
		c := st.Target.Center()
		gocv.Circle(img, image.Pt(c.X, c.Y), 5, green, -1)
	}

	y := 30
	for i, line := range snap.Lines() {
		col := white
		switch {
		case i == 0 && snap.Tracking:
			col = green
		case i == 0:
			col = cyan
		}
		gocv.PutText(img, line, image.Pt(10, y), gocv.FontHersheySimplex, 0.6, col, 2)
		y += 25
	}

	if st.State == tracking.StateRecovering {
		gocv.PutText(img, "RETURNING HOME", image.Pt(10, y+10), gocv.FontHersheySimplex, 0.7, red, 2)
	}
}
