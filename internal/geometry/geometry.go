// Package geometry computes per-page layout for the conversion core: page
// size, orientation and the placement rectangle of the image, all in
// millimeters. It is pure math on pixel dimensions and DPI; it never touches
// pixel data.
package geometry

// Orientation selects the outer page orientation.
type Orientation string

const (
	OrientationAuto      Orientation = "auto"
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Margin selects the page inset applied on all four sides.
type Margin string

const (
	MarginNone  Margin = "none"
	MarginSmall Margin = "small"
	MarginBig   Margin = "big"
)

// Margin widths in millimeters.
const (
	marginSmallMM = 5.0
	marginBigMM   = 15.0
)

const mmPerInch = 25.4

// Options is the validated, immutable per-request options record. The HTTP
// boundary parses its loose form strings into this once; the core never sees
// raw strings.
type Options struct {
	Orientation Orientation
	// Fit scales the image to fit inside the margin-inset frame (letterboxing
	// allowed, never cropping). When false the page is sized to the image, the
	// historical auto-page-size behavior.
	Fit    bool
	Margin Margin
}

// PageGeometry is the resolved layout for one page. Content* is the image
// placement rectangle; its aspect ratio always equals the image's own.
type PageGeometry struct {
	PageW, PageH       float64
	ContentX, ContentY float64
	ContentW, ContentH float64
	MarginMM           float64
}

// MM returns the margin width in millimeters.
func (m Margin) MM() float64 {
	switch m {
	case MarginSmall:
		return marginSmallMM
	case MarginBig:
		return marginBigMM
	default:
		return 0
	}
}

// Resolve computes the page geometry for one decoded image. widthPx and
// heightPx must be positive (the decoder guarantees this); a non-positive DPI
// is treated as 96.
func Resolve(widthPx, heightPx int, dpiX, dpiY float64, opts Options) PageGeometry {
	if dpiX <= 0 {
		dpiX = 96
	}
	if dpiY <= 0 {
		dpiY = 96
	}

	// Natural physical size of the image at its own density.
	naturalW := float64(widthPx) / dpiX * mmPerInch
	naturalH := float64(heightPx) / dpiY * mmPerInch

	m := opts.Margin.MM()
	pageW := naturalW + 2*m
	pageH := naturalH + 2*m

	// Orientation forcing swaps the outer page dims only. With auto the page
	// already follows the image's aspect.
	switch opts.Orientation {
	case OrientationPortrait:
		if pageW > pageH {
			pageW, pageH = pageH, pageW
		}
	case OrientationLandscape:
		if pageH > pageW {
			pageW, pageH = pageH, pageW
		}
	}

	contentW, contentH := naturalW, naturalH
	if opts.Fit {
		// Scale to fit inside the margin-inset frame, preserving aspect.
		frameW := pageW - 2*m
		frameH := pageH - 2*m
		scale := frameW / naturalW
		if s := frameH / naturalH; s < scale {
			scale = s
		}
		contentW = naturalW * scale
		contentH = naturalH * scale
	} else if contentW > pageW-2*m || contentH > pageH-2*m {
		// Page sized to image, but a forced orientation swap can leave the
		// native rect larger than the frame on one axis; shrink to fit so the
		// content never crosses the margins.
		scale := (pageW - 2*m) / naturalW
		if s := (pageH - 2*m) / naturalH; s < scale {
			scale = s
		}
		contentW = naturalW * scale
		contentH = naturalH * scale
	}

	return PageGeometry{
		PageW:    pageW,
		PageH:    pageH,
		ContentX: (pageW - contentW) / 2,
		ContentY: (pageH - contentH) / 2,
		ContentW: contentW,
		ContentH: contentH,
		MarginMM: m,
	}
}
