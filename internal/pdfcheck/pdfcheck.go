// Package pdfcheck verifies finished documents without writing them to disk:
// structural validation and page inspection via pdfcpu, and raster
// render-back via MuPDF for fidelity checks.
package pdfcheck

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Dim is one page's media box size in PDF points.
type Dim struct {
	Width  float64
	Height float64
}

func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

// Validate runs pdfcpu's relaxed structural validation over the document.
func Validate(doc []byte) error {
	if err := api.Validate(bytes.NewReader(doc), conf()); err != nil {
		return fmt.Errorf("pdf validation: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in the document.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), conf())
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}

// PageDims returns every page's media box size in points, in page order.
func PageDims(doc []byte) ([]Dim, error) {
	dims, err := api.PageDims(bytes.NewReader(doc), conf())
	if err != nil {
		return nil, fmt.Errorf("pdf page dims: %w", err)
	}
	out := make([]Dim, len(dims))
	for i, d := range dims {
		out[i] = Dim{Width: d.Width, Height: d.Height}
	}
	return out, nil
}
