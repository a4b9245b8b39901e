package raster

import (
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// Scale resamples img by factor with the given interpolator. A factor of 1
// or more returns img unchanged; the result is never smaller than 1×1.
func Scale(img *Image, factor float64, interp draw.Interpolator) *Image {
	if factor >= 1 || factor <= 0 {
		return img
	}
	width := max(1, int(float64(img.Width())*factor))
	height := max(1, int(float64(img.Height())*factor))
	return scaleTo(img, img.Bounds(), image.Rect(0, 0, width, height), interp)
}

// Resize fits img into width×height. A zero dimension keeps the source one.
// With crop the source is trimmed to the destination aspect ratio, otherwise
// the result shrinks along one axis to preserve it.
func Resize(logger *slog.Logger, img *Image, width, height int, crop bool) *Image {
	srcBounds := img.Bounds()
	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())

	destWidth := float64(width)
	if destWidth == 0 {
		destWidth = srcWidth
	}
	destHeight := float64(height)
	if destHeight == 0 {
		destHeight = srcHeight
	}
	if srcWidth == destWidth && srcHeight == destHeight {
		return img
	}

	destBounds := image.Rect(0, 0, int(destWidth), int(destHeight))
	srcAR := srcWidth / srcHeight
	destAR := destWidth / destHeight
	switch {
	case crop && srcAR < destAR:
		dh := int(math.Round((srcHeight - srcWidth/destAR) / 2))
		srcBounds.Min.Y += dh
		srcBounds.Max.Y -= dh
	case crop && srcAR > destAR:
		dw := int(math.Round((srcWidth - srcHeight*destAR) / 2))
		srcBounds.Min.X += dw
		srcBounds.Max.X -= dw
	case srcAR < destAR:
		destBounds.Max.X = max(1, int(math.Round(destHeight*srcAR)))
	case srcAR > destAR:
		destBounds.Max.Y = max(1, int(math.Round(destWidth/srcAR)))
	}

	logger.Info("resizing", "width", destBounds.Dx(), "height", destBounds.Dy())
	return scaleTo(img, srcBounds, destBounds, draw.CatmullRom)
}

func scaleTo(img *Image, srcBounds, destBounds image.Rectangle, interp draw.Interpolator) *Image {
	dest := image.NewRGBA64(destBounds)
	interp.Scale(dest, destBounds, img, srcBounds, draw.Src, nil)
	return FromImage(dest)
}
