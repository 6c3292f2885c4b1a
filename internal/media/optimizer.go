// Package media normalizes uploaded images before they are stored.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
)

// Output format of every optimized image.
const (
	ContentType = "image/jpeg"
	Extension   = ".jpg"
)

// ErrUnsupportedType is returned for content that is not an allowed image.
var ErrUnsupportedType = errors.New("unsupported image type")

// Optimizer cover-resizes images to a fixed box and re-encodes them as JPEG.
type Optimizer struct {
	width     int
	height    int
	quality   int
	mimeTypes map[string]struct{}
}

// NewOptimizer creates an Optimizer from the upload configuration.
func NewOptimizer(cfg config.UploadConfig) *Optimizer {
	o := &Optimizer{
		width:     cfg.Width,
		height:    cfg.Height,
		quality:   cfg.Quality,
		mimeTypes: make(map[string]struct{}, len(cfg.MimeTypes)),
	}
	if o.width <= 0 {
		o.width = 400
	}
	if o.height <= 0 {
		o.height = 400
	}
	if o.quality <= 0 || o.quality > 100 {
		o.quality = 70
	}
	for _, m := range cfg.MimeTypes {
		o.mimeTypes[m] = struct{}{}
	}
	return o
}

// Sniff returns the content type of data and whether it is allowed.
func (o *Optimizer) Sniff(data []byte) (string, bool) {
	ct := http.DetectContentType(data)
	_, ok := o.mimeTypes[ct]
	return ct, ok
}

// Optimize decodes data honoring EXIF orientation, crops it to the
// configured aspect ratio and scales it down to the configured box. Smaller
// images are cropped but never enlarged.
func (o *Optimizer) Optimize(data []byte) ([]byte, error) {
	if _, ok := o.Sniff(data); !ok {
		return nil, ErrUnsupportedType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	w, h := o.targetSize(img.Bounds())
	out := imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(o.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// targetSize shrinks the box to fit inside b while keeping its aspect ratio.
func (o *Optimizer) targetSize(b image.Rectangle) (int, int) {
	srcW, srcH := b.Dx(), b.Dy()
	if srcW >= o.width && srcH >= o.height {
		return o.width, o.height
	}
	scale := min(float64(srcW)/float64(o.width), float64(srcH)/float64(o.height))
	w := max(1, int(float64(o.width)*scale))
	h := max(1, int(float64(o.height)*scale))
	return w, h
}
