package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/ichStark/byen-tech/internal/filetype"
)

// Decode failure kinds. Callers match with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrCorruptData       = errors.New("corrupt image data")
	ErrImageTooLarge     = errors.New("image exceeds size limits")
)

const (
	// maxImageDimension caps width/height so corrupted headers cannot force
	// excessive allocations before the real decode.
	maxImageDimension = 20000
	// maxImagePixels bounds total pixel count (~64MP keeps NRGBA buffers under 256MB).
	maxImagePixels int64 = 64 * 1024 * 1024

	// DefaultDPI is assumed when an image carries no density metadata.
	DefaultDPI = 96.0
)

// DecodedImage is a normalized in-memory raster: opaque RGB, oriented
// upright, with the source's pixel density attached.
type DecodedImage struct {
	Width  int
	Height int
	Pixels *image.NRGBA
	DPIX   float64
	DPIY   float64
}

// Decoder turns raw JPEG/PNG buffers into normalized rasters.
type Decoder struct {
	detector   *filetype.Detector
	defaultDPI float64
}

// NewDecoder creates a Decoder. A non-positive defaultDPI falls back to DefaultDPI.
func NewDecoder(defaultDPI float64) *Decoder {
	if defaultDPI <= 0 {
		defaultDPI = DefaultDPI
	}
	return &Decoder{detector: filetype.New(), defaultDPI: defaultDPI}
}

// Decode sniffs, decodes and normalizes one image buffer. The declared MIME
// type is logged but never trusted; content sniffing is authoritative.
func (d *Decoder) Decode(data []byte, declaredMIME string) (*DecodedImage, error) {
	info := d.detector.Detect(data)
	if !info.Supported {
		log.Debug().Str("sniffed", info.MIMEType).Str("declared", declaredMIME).Msg("rejected non JPEG/PNG upload")
		return nil, fmt.Errorf("%w: sniffed %s", ErrUnsupportedFormat, info.MIMEType)
	}

	if err := d.checkBounds(data, info.Kind); err != nil {
		return nil, err
	}

	var (
		img image.Image
		err error
	)
	switch info.Kind {
	case filetype.JPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case filetype.PNG:
		img, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}

	orientation := 1
	dpiX, dpiY := d.defaultDPI, d.defaultDPI
	switch info.Kind {
	case filetype.JPEG:
		orientation, dpiX, dpiY = jpegMeta(data, d.defaultDPI)
	case filetype.PNG:
		dpiX = pngDPI(data, d.defaultDPI)
		dpiY = dpiX
	}

	flat := flattenToOpaque(img)
	flat = applyOrientation(flat, orientation)

	b := flat.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: degenerate dimensions %dx%d", ErrCorruptData, b.Dx(), b.Dy())
	}

	return &DecodedImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: flat,
		DPIX:   dpiX,
		DPIY:   dpiY,
	}, nil
}

// checkBounds reads only the header to validate dimensions before decoding
// the full raster.
func (d *Decoder) checkBounds(data []byte, kind filetype.Kind) error {
	var (
		cfg image.Config
		err error
	)
	switch kind {
	case filetype.JPEG:
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	case filetype.PNG:
		cfg, err = png.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: degenerate dimensions %dx%d", ErrCorruptData, cfg.Width, cfg.Height)
	}
	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d per side", ErrImageTooLarge, cfg.Width, cfg.Height, maxImageDimension)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > maxImagePixels {
		return fmt.Errorf("%w: %d pixels exceeds %d", ErrImageTooLarge, px, maxImagePixels)
	}
	return nil
}

// flattenToOpaque composites the source over an opaque white background,
// yielding a fully opaque NRGBA raster regardless of the source color model.
func flattenToOpaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// applyOrientation undoes the EXIF orientation so downstream geometry can
// rely on Width/Height describing the upright image.
func applyOrientation(img *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
