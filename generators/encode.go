package generators

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// PNGMimeType is the MIME type carried by data URIs from EncodeDataURI.
const PNGMimeType = "image/png"

// EncodeDataURI encodes img as PNG and wraps it in a base64 data URI.
func EncodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding png: %w", err)
	}
	return "data:" + PNGMimeType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
