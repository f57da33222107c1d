// Package pdf assembles normalized rasters into a single multi-page PDF.
package pdf

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/ichStark/byen-tech/internal/geometry"
	"github.com/ichStark/byen-tech/internal/raster"
)

// RawImage is one uploaded file: client filename plus undecoded bytes. The
// declared MIME type is informational only; content sniffing decides.
type RawImage struct {
	Filename     string
	Data         []byte
	DeclaredMIME string
}

// Page is one finished page awaiting serialization: a re-encoded image plus
// its resolved geometry, tagged with the original batch index.
type Page struct {
	Index    int
	Geometry geometry.PageGeometry
	JPEG     []byte
}

func (p *Page) imageName() string {
	return fmt.Sprintf("img_%d", p.Index)
}

// Renderer re-encodes normalized rasters for embedding. Quality is a fixed
// per-instance constant, not user-configurable.
type Renderer struct {
	quality int
}

// NewRenderer creates a Renderer. Quality outside (0,100] falls back to 95,
// the quality the original uploads were re-encoded at.
func NewRenderer(quality int) *Renderer {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &Renderer{quality: quality}
}

// RenderPage re-encodes the raster as baseline JPEG and pairs it with its
// geometry. One lossy re-encode per image, nothing else.
func (r *Renderer) RenderPage(img *raster.DecodedImage, geo geometry.PageGeometry, index int) (*Page, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.Pixels, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", index, err)
	}
	return &Page{
		Index:    index,
		Geometry: geo,
		JPEG:     buf.Bytes(),
	}, nil
}
