package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
	ftyp    = []byte("ftyp")
)

// FindEmbeddedVideo returns the offset of an MP4 file appended to JPEG data,
// or -1 if there is none. The MP4 is recognised by its leading ftyp box,
// which must follow a JPEG end-of-image marker.
func FindEmbeddedVideo(data []byte) int {
	if !bytes.HasPrefix(data, jpegSOI) {
		return -1
	}

	for off := len(jpegSOI); off < len(data); {
		i := bytes.Index(data[off:], ftyp)
		if i < 0 {
			return -1
		}
		i += off
		off = i + len(ftyp)

		start := i - 4
		if start <= len(jpegSOI) || bytes.LastIndex(data[:start], jpegEOI) < 0 {
			continue
		}
		size := int(binary.BigEndian.Uint32(data[start:i]))
		if size < 8 || size > 256 || start+size > len(data) {
			continue
		}
		return start
	}
	return -1
}

// ExtractMotionVideo copies the clip embedded in the motion photo src to
// dst. found is false when src is an ordinary photo; dst is then untouched.
func ExtractMotionVideo(src, dst string) (found bool, err error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", src, err)
	}

	offset := FindEmbeddedVideo(data)
	if offset < 0 {
		return false, nil
	}

	if err := writeFileAtomic(dst, data[offset:]); err != nil {
		return false, err
	}
	return true, nil
}
