package codec

import (
	"bytes"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// DetectInterlace reports whether buf holds a progressive JPEG or an Adam7
// interlaced PNG. Other formats report false.
func DetectInterlace(buf []byte) bool {
	switch {
	case len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xD8:
		return jpegProgressive(buf)
	case bytes.HasPrefix(buf, pngSignature):
		return pngInterlaced(buf)
	}
	return false
}

// jpegProgressive walks the marker segments up to the first SOF marker.
func jpegProgressive(buf []byte) bool {
	i := 2
	for i+4 <= len(buf) {
		if buf[i] != 0xFF {
			return false
		}
		marker := buf[i+1]
		switch {
		case marker == 0xFF:
			// fill byte
			i++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD8):
			i += 2
			continue
		case marker == 0xDA || marker == 0xD9:
			return false
		case marker == 0xC2 || marker == 0xC6 || marker == 0xCA || marker == 0xCE:
			return true
		case marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC:
			return false
		}
		segLen := int(buf[i+2])<<8 | int(buf[i+3])
		if segLen < 2 {
			return false
		}
		i += 2 + segLen
	}
	return false
}

// pngInterlaced reads the interlace method byte of the IHDR chunk.
func pngInterlaced(buf []byte) bool {
	if len(buf) < 29 || string(buf[12:16]) != "IHDR" {
		return false
	}
	return buf[28] == 1
}
