package service

import (
	"fmt"
	"strings"

	"github.com/ichStark/byen-tech/internal/geometry"
)

// ParseOptions converts the boundary's loose form strings into a validated
// options record. Empty fields take the historical defaults: orientation
// follows each image, pages are sized to images, no margin. Unknown values
// are validation errors, not silently ignored.
func ParseOptions(orientation, fit, margin string) (geometry.Options, error) {
	opts := geometry.Options{
		Orientation: geometry.OrientationAuto,
		Fit:         false,
		Margin:      geometry.MarginNone,
	}

	switch strings.ToLower(strings.TrimSpace(orientation)) {
	case "", "auto":
	case "portrait":
		opts.Orientation = geometry.OrientationPortrait
	case "landscape":
		opts.Orientation = geometry.OrientationLandscape
	default:
		return opts, &ValidationError{Reason: fmt.Sprintf("unknown orientation %q", orientation)}
	}

	switch strings.ToLower(strings.TrimSpace(fit)) {
	case "", "false", "0", "no", "off":
	case "true", "1", "yes", "on":
		opts.Fit = true
	default:
		return opts, &ValidationError{Reason: fmt.Sprintf("unknown fit value %q", fit)}
	}

	switch strings.ToLower(strings.TrimSpace(margin)) {
	case "", "none":
	case "small":
		opts.Margin = geometry.MarginSmall
	case "big":
		opts.Margin = geometry.MarginBig
	default:
		return opts, &ValidationError{Reason: fmt.Sprintf("unknown margin %q", margin)}
	}

	return opts, nil
}
