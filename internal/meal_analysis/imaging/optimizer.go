// Package imaging normalizes uploaded meal photos before storage and analysis.
package imaging

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"math"
	"path"
	"strings"

	// decoders for the formats phones upload
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/bloomi-app/bloomi-backend/internal/logger"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

const (
	MaxWidth    = 1920
	MaxHeight   = 1080
	MaxFileSize = 1024 * 1024 // 1 MiB
	JPEGQuality = 85
)

// Optimizer bounds image dimensions and recompresses oversized uploads.
// Optimization is best effort: on any failure the input is returned as is.
type Optimizer struct {
	maxWidth  int
	maxHeight int
	maxSize   int64
	quality   int
}

func NewOptimizer() *Optimizer {
	return &Optimizer{
		maxWidth:  MaxWidth,
		maxHeight: MaxHeight,
		maxSize:   MaxFileSize,
		quality:   JPEGQuality,
	}
}

// Optimize returns img unchanged when it already fits the bounds, otherwise a
// JPEG scaled to fit inside them.
func (o *Optimizer) Optimize(ctx context.Context, img domain.Image) domain.Image {
	log := logger.New(ctx)

	src, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		log.LogWarnf("optimize_image", "failed to decode image, returning original: file=%s error=%v", img.Filename, err)
		return img
	}

	size := img.Size
	if size <= 0 {
		size = int64(len(img.Data))
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= o.maxWidth && height <= o.maxHeight && size <= o.maxSize {
		log.LogInfof("optimize_image", "image already optimized: %dx%d size=%dKB", width, height, size/1024)
		return img
	}

	newWidth, newHeight := FitWithin(width, height, o.maxWidth, o.maxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	// JPEG has no alpha channel; transparent pixels become white instead of black.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: o.quality}); err != nil {
		log.LogErrorf("optimize_image", "failed to encode image, returning original: %v", err)
		return img
	}

	optimizedSize := int64(buf.Len())
	log.LogInfof("optimize_image", "image optimized: %s %dx%d (%dKB) -> %dx%d (%dKB), reduction=%d%%",
		format, width, height, size/1024, newWidth, newHeight, optimizedSize/1024,
		int(100-float64(optimizedSize)*100/float64(size)))

	return domain.Image{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Size:        optimizedSize,
		Filename:    JPEGFilename(img.Filename),
	}
}

// FitWithin scales width x height down to fit inside maxW x maxH keeping the
// aspect ratio. Images that already fit are never enlarged.
func FitWithin(width, height, maxW, maxH int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	scale := math.Min(float64(maxW)/float64(width), float64(maxH)/float64(height))
	if scale >= 1 {
		return width, height
	}
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}

// JPEGFilename swaps the extension of name for .jpg.
func JPEGFilename(name string) string {
	name = strings.TrimSpace(name)
	ext := path.Ext(name)
	if name == "" || ext == "" || ext == name {
		return "optimized.jpg"
	}
	return strings.TrimSuffix(name, ext) + ".jpg"
}
