package core

// streaming.go prepares import files for the parser without loading them
// through any ad hoc byte juggling:
//
//   - A UTF-8 BOM written by Windows spreadsheet tools is removed.
//   - Invalid UTF-8 sequences are replaced with U+FFFD.
//   - Files saved in GB18030/GBK (Excel on Chinese-locale systems) are
//     decoded to UTF-8 when that encoding is configured.
//   - Input larger than the configured limit is rejected.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxImportBytes is the default size limit for one import file (16MB).
const DefaultMaxImportBytes int64 = 16 * 1024 * 1024

// ErrImportTooLarge is returned when import input exceeds the size limit.
var ErrImportTooLarge = errors.New("import file too large")

// Supported import encodings.
const (
	EncodingUTF8    = "utf-8"
	EncodingGB18030 = "gb18030"
)

// ImportDecoder returns the decoder for a configured encoding name.
func ImportDecoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		// Invalid sequences decode to U+FFFD.
		return unicode.UTF8.NewDecoder(), nil
	case EncodingGB18030, "gbk":
		return simplifiedchinese.GB18030.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported import encoding %q", name)
	}
}

// WrapImportReader wraps r with BOM removal and decoding to UTF-8.
// A UTF-8 or UTF-16 BOM overrides the configured encoding.
func WrapImportReader(r io.Reader, encodingName string) (io.Reader, error) {
	dec, err := ImportDecoder(encodingName)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(dec)), nil
}

// ReadImportText reads all of r as import text, applying WrapImportReader
// and rejecting input larger than maxBytes (<= 0 uses the default).
func ReadImportText(r io.Reader, encodingName string, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImportBytes
	}

	// Read one byte past the limit to detect oversized input. The limit
	// applies to raw bytes, before decoding can change the length.
	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read import: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrImportTooLarge, maxBytes)
	}

	wrapped, err := WrapImportReader(bytes.NewReader(raw), encodingName)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(wrapped)
	if err != nil {
		return "", fmt.Errorf("decode import: %w", err)
	}
	return string(data), nil
}
