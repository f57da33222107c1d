package filetype

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind identifies a supported raster format.
type Kind string

const (
	JPEG    Kind = "jpeg"
	PNG     Kind = "png"
	Unknown Kind = ""
)

// Info contains detected file type information.
type Info struct {
	MIMEType  string
	Extension string
	Kind      Kind
	Supported bool
}

// Detector classifies uploaded buffers using magic bytes.
type Detector struct{}

// New creates a new file type detector.
func New() *Detector {
	return &Detector{}
}

// Detect sniffs the actual content type of the buffer. The client-declared
// MIME type and filename extension are deliberately ignored: filenames are
// attacker-controlled and routinely wrong.
func (d *Detector) Detect(data []byte) Info {
	mtype := mimetype.Detect(data)

	info := Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}

	switch {
	case mtype.Is("image/jpeg"):
		info.Kind = JPEG
		info.Supported = true
	case mtype.Is("image/png"):
		info.Kind = PNG
		info.Supported = true
	}
	return info
}

// AllowedFilename reports whether the filename carries an accepted extension.
// Only used for early feedback; sniffing in Detect is authoritative.
func AllowedFilename(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range []string{".jpg", ".jpeg", ".png"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
