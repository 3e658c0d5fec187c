package camera

import (
	"image"

	"gocv.io/x/gocv"
)

// CropRect returns the centered region shown at the given zoom factor.
// Zoom at or below 1.0 returns the whole frame.
func CropRect(width, height int, zoom float64) image.Rectangle {
	if zoom <= 1.0 {
		return image.Rect(0, 0, width, height)
	}

	w := int(float64(width) / zoom)
	h := int(float64(height) / zoom)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := (width - w) / 2
	y := (height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// ApplyZoom crops the center of src and scales it back to full size into dst.
// At zoom 1.0 src is copied unchanged.
func ApplyZoom(src gocv.Mat, dst *gocv.Mat, zoom float64) {
	if zoom <= 1.0 {
		src.CopyTo(dst)
		return
	}

	roi := src.Region(CropRect(src.Cols(), src.Rows(), zoom))
	defer roi.Close()

	gocv.Resize(roi, dst, image.Pt(src.Cols(), src.Rows()), 0, 0, gocv.InterpolationLinear)
}
