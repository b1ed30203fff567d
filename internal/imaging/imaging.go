// Package imaging shrinks uploaded featured images toward a byte budget and a
// maximum edge length before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotImage = errors.New("not an image")
	ErrTooLarge = errors.New("image dimensions too large")
)

// MaxPixels caps the canvas a file may declare before it is decoded.
const MaxPixels = 40_000_000

// DefaultMaxBytes and DefaultMaxDimension match the editor's upload policy.
const (
	DefaultMaxBytes     = 200 * 1024
	DefaultMaxDimension = 1280
)

var jpegQualities = []int{85, 75, 65, 55, 45, 35}

const (
	maxDownscales = 4
	downscaleStep = 0.75
)

type Result struct {
	Data        []byte
	ContentType string
	// Ext is the file extension matching Data, without the dot.
	Ext string
}

type Compressor struct {
	maxBytes     int
	maxDimension int
}

func NewCompressor(maxBytes, maxDimension int) *Compressor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Compressor{maxBytes: maxBytes, maxDimension: maxDimension}
}

// Detect sniffs data and fails unless it is an image.
func Detect(data []byte) (*mimetype.MIME, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	return mt, nil
}

// Compress returns data unchanged when it already fits both limits.
// Otherwise the image is scaled to fit maxDimension and re-encoded: PNGs with
// transparency stay PNG, everything else becomes JPEG at the highest quality
// that fits maxBytes. When nothing fits, the smallest attempt is returned.
func (c *Compressor) Compress(data []byte) (*Result, error) {
	mt, err := Detect(data)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", mt.String(), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", mt.String(), err)
	}

	if len(data) <= c.maxBytes && longestSide(img.Bounds()) <= c.maxDimension {
		return &Result{Data: data, ContentType: mt.String(), Ext: strings.TrimPrefix(mt.Extension(), ".")}, nil
	}

	keepAlpha := format == "png" && !isOpaque(img)
	img = fit(img, c.maxDimension)

	if keepAlpha {
		return c.encodePNG(img)
	}
	return c.encodeJPEG(img)
}

func (c *Compressor) encodePNG(img image.Image) (*Result, error) {
	enc := png.Encoder{CompressionLevel: png.BestCompression}

	var best []byte
	for i := 0; i < maxDownscales; i++ {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		best = buf.Bytes()
		if len(best) <= c.maxBytes {
			break
		}
		img = scale(img, downscaleStep)
	}
	return &Result{Data: best, ContentType: "image/png", Ext: "png"}, nil
}

func (c *Compressor) encodeJPEG(img image.Image) (*Result, error) {
	var best []byte
	for i := 0; i < maxDownscales; i++ {
		for _, q := range jpegQualities {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
				return nil, fmt.Errorf("failed to encode jpeg: %w", err)
			}
			if best == nil || buf.Len() < len(best) {
				best = buf.Bytes()
			}
			if buf.Len() <= c.maxBytes {
				return &Result{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: "jpg"}, nil
			}
		}
		img = scale(img, downscaleStep)
	}
	return &Result{Data: best, ContentType: "image/jpeg", Ext: "jpg"}, nil
}

func longestSide(b image.Rectangle) int {
	return max(b.Dx(), b.Dy())
}

// fit scales img down so its longest side is at most maxDimension.
func fit(img image.Image, maxDimension int) image.Image {
	side := longestSide(img.Bounds())
	if side <= maxDimension {
		return img
	}
	return scale(img, float64(maxDimension)/float64(side))
}

func scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
