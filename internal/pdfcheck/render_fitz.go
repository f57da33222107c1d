package pdfcheck

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// RenderPage rasterizes one page (0-based) of the document at the given DPI.
// Used by fidelity tests to compare the embedded image against its source.
func RenderPage(doc []byte, page int, dpi float64) (image.Image, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer d.Close()

	img, err := d.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}
