package service

import (
	"errors"
	"testing"

	"github.com/ichStark/byen-tech/internal/geometry"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name                   string
		orientation, fit, marg string
		want                   geometry.Options
	}{
		{
			name: "all defaults",
			want: geometry.Options{Orientation: geometry.OrientationAuto, Fit: false, Margin: geometry.MarginNone},
		},
		{
			name: "explicit auto", orientation: "auto",
			want: geometry.Options{Orientation: geometry.OrientationAuto, Margin: geometry.MarginNone},
		},
		{
			name: "portrait fit big", orientation: "portrait", fit: "true", marg: "big",
			want: geometry.Options{Orientation: geometry.OrientationPortrait, Fit: true, Margin: geometry.MarginBig},
		},
		{
			name: "landscape no fit small", orientation: "landscape", fit: "false", marg: "small",
			want: geometry.Options{Orientation: geometry.OrientationLandscape, Fit: false, Margin: geometry.MarginSmall},
		},
		{
			name: "case and whitespace", orientation: " Landscape ", fit: "TRUE", marg: "NONE",
			want: geometry.Options{Orientation: geometry.OrientationLandscape, Fit: true, Margin: geometry.MarginNone},
		},
		{
			name: "form style booleans", fit: "1",
			want: geometry.Options{Orientation: geometry.OrientationAuto, Fit: true, Margin: geometry.MarginNone},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOptions(tc.orientation, tc.fit, tc.marg)
			if err != nil {
				t.Fatalf("ParseOptions: %v", err)
			}
			if got != tc.want {
				t.Errorf("options = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseOptionsRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name                   string
		orientation, fit, marg string
	}{
		{name: "bad orientation", orientation: "diagonal"},
		{name: "bad fit", fit: "maybe"},
		{name: "bad margin", marg: "huge"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOptions(tc.orientation, tc.fit, tc.marg)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("err = %v, want *ValidationError", err)
			}
		})
	}
}
