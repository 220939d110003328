package port

import (
	"context"
	"image"
)

// OCREngine recognizes text in raster images. Available is resolved once at
// startup; callers branch on it instead of probing per request.
type OCREngine interface {
	Available() bool
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// PageRasterizer renders a single PDF page (1-based) to an image.
type PageRasterizer interface {
	Available() bool
	RasterizePage(ctx context.Context, pdf []byte, page int) (image.Image, error)
}
