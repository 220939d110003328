// Package imageproc prepares scanned images for OCR.
package imageproc

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// Options tunes the enhancement pipeline.
type Options struct {
	// MinDimension is the size both sides are scaled up to reach.
	MinDimension    int
	MedianSize      int
	ContrastPercent float64
	SharpenSigma    float64
	// ThresholdFactor scales the mean luminance to get the binarization cut.
	ThresholdFactor float64
}

// DefaultOptions returns the settings used for every OCR page.
func DefaultOptions() Options {
	return Options{
		MinDimension:    1000,
		MedianSize:      3,
		ContrastPercent: 50,
		SharpenSigma:    1.0,
		ThresholdFactor: 0.9,
	}
}

// Enhance runs the default pipeline. It is pure and deterministic.
func Enhance(img image.Image) *image.Gray {
	return EnhanceWith(img, DefaultOptions())
}

// EnhanceWith converts img to grayscale, upscales small images, removes
// speckle noise, boosts contrast and sharpness and binarizes the result.
func EnhanceWith(img image.Image, opts Options) *image.Gray {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	var work image.Image = imaging.Grayscale(img)
	work = upscale(work, opts.MinDimension)
	work = medianFilter(toGray(work), opts.MedianSize)
	if opts.ContrastPercent != 0 {
		work = imaging.AdjustContrast(work, opts.ContrastPercent)
	}
	if opts.SharpenSigma > 0 {
		work = imaging.Sharpen(work, opts.SharpenSigma)
	}
	return threshold(toGray(work), opts.ThresholdFactor)
}

func upscale(img image.Image, minDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if minDim <= 0 || (w >= minDim && h >= minDim) {
		return img
	}
	scale := math.Max(float64(minDim)/float64(w), float64(minDim)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return out
}

// medianFilter applies a size x size median with edge clamping.
func medianFilter(src *image.Gray, size int) *image.Gray {
	if size < 3 {
		return src
	}
	r := size / 2
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	window := make([]uint8, 0, size*size)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -r; dy <= r; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := -r; dx <= r; dx++ {
					xx := clamp(x+dx, 0, w-1)
					window = append(window, src.Pix[yy*src.Stride+xx])
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.Pix[y*out.Stride+x] = window[len(window)/2]
		}
	}
	return out
}

// threshold binarizes against factor times the mean luminance.
func threshold(src *image.Gray, factor float64) *image.Gray {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += float64(src.Pix[y*src.Stride+x])
		}
	}
	cut := sum / float64(w*h) * factor

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if float64(src.Pix[y*src.Stride+x]) > cut {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
