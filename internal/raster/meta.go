package raster

import (
	"bytes"
	"encoding/binary"
	"io"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// jpegMeta extracts the EXIF orientation tag and pixel density from a JPEG
// buffer. Absent or unparseable metadata yields orientation 1 and defaultDPI.
func jpegMeta(data []byte, defaultDPI float64) (orientation int, dpiX, dpiY float64) {
	orientation = 1
	dpiX, dpiY = defaultDPI, defaultDPI

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return
	}

	im := exifcommon.NewIfdMapping()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return
	}
	ti := exif.NewTagIndex()
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return
	}
	root := index.RootIfd

	if tag, err := root.FindTagWithName("Orientation"); err == nil && len(tag) > 0 {
		if val, err := tag[0].Value(); err == nil {
			if o := shortValue(val); o >= 1 && o <= 8 {
				orientation = o
			}
		}
	}

	if x, ok := rationalTag(root, "XResolution"); ok && x > 0 {
		dpiX = x
	}
	if y, ok := rationalTag(root, "YResolution"); ok && y > 0 {
		dpiY = y
	}

	// ResolutionUnit 3 means pixels per centimeter.
	if tag, err := root.FindTagWithName("ResolutionUnit"); err == nil && len(tag) > 0 {
		if val, err := tag[0].Value(); err == nil && shortValue(val) == 3 {
			dpiX *= 2.54
			dpiY *= 2.54
		}
	}
	return
}

func rationalTag(ifd *exif.Ifd, name string) (float64, bool) {
	tag, err := ifd.FindTagWithName(name)
	if err != nil || len(tag) == 0 {
		return 0, false
	}
	val, err := tag[0].Value()
	if err != nil {
		return 0, false
	}
	rats, ok := val.([]exifcommon.Rational)
	if !ok || len(rats) == 0 || rats[0].Denominator == 0 {
		return 0, false
	}
	return float64(rats[0].Numerator) / float64(rats[0].Denominator), true
}

func shortValue(val interface{}) int {
	switch v := val.(type) {
	case uint16:
		return int(v)
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	}
	return 0
}

// pngDPI walks PNG chunks looking for pHYs and converts pixels-per-meter to
// DPI. PNGs without a pHYs chunk (or with unit "unknown") get defaultDPI.
func pngDPI(data []byte, defaultDPI float64) float64 {
	const signatureLen = 8
	if len(data) < signatureLen {
		return defaultDPI
	}
	buf := bytes.NewReader(data[signatureLen:])

	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			break
		}
		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			break
		}

		if string(chunkType) == "pHYs" {
			var perUnitX, perUnitY uint32
			var unit byte
			if err := binary.Read(buf, binary.BigEndian, &perUnitX); err != nil {
				return defaultDPI
			}
			if err := binary.Read(buf, binary.BigEndian, &perUnitY); err != nil {
				return defaultDPI
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return defaultDPI
			}
			if unit == 1 && perUnitX > 0 {
				return float64(perUnitX) * 0.0254
			}
			return defaultDPI
		}

		// IDAT precedes nothing we care about; stop scanning compressed data.
		if string(chunkType) == "IDAT" || string(chunkType) == "IEND" {
			break
		}

		// skip chunk data + CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			break
		}
	}
	return defaultDPI
}
