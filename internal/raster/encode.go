package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// MaskImage contains a mask rendered as a base64 PNG.
//
// Ink cells are black (0) and background cells white (255), matching how the
// drawing looked before binarization.
type MaskImage struct {
	// Width of the mask in pixels.
	Width int `json:"width"`

	// Height of the mask in pixels.
	Height int `json:"height"`

	// InkPixels is the number of ink cells in the mask.
	InkPixels int `json:"ink_pixels"`

	// ImageBase64 is the grayscale PNG encoded as standard base64.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// ToGray renders the mask as a grayscale image with black ink on white.
func (m *Mask) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := uint8(255)
			if m.ink[y*m.Width+x] {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

// EncodePNG renders the mask and encodes it for transport.
func EncodePNG(m *Mask) (*MaskImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m.ToGray()); err != nil {
		return nil, fmt.Errorf("failed to encode mask image: %w", err)
	}

	return &MaskImage{
		Width:       m.Width,
		Height:      m.Height,
		InkPixels:   m.InkCount(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
