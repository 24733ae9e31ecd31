package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	_ "image/gif"

	"golang.org/x/image/draw"
)

// DefaultMaxDim bounds the longer side of a re-encoded attachment.
const DefaultMaxDim = 2000

// jpegQualities tried when producing lossy candidates, best first.
var jpegQualities = []int{85, 75, 65}

// Result describes the winning encoding of one compression pass.
type Result struct {
	DataURL  string `json:"dataUrl"`
	MimeType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type candidate struct {
	mimeType string
	data     []byte
}

// Compress re-encodes the image held in dataURL: decode, resize within
// maxDim (aspect preserved, never upscaled), then keep the smallest of the
// lossless and lossy candidates. Input that does not decode as an image is
// returned unchanged with zero dimensions; the original bytes also win when
// no candidate is smaller.
func Compress(dataURL string, maxDim int) (*Result, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}

	originalMime, originalBytes, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}

	decoded, _, err := image.Decode(bytes.NewReader(originalBytes))
	if err != nil {
		return &Result{
			DataURL:  BuildDataURL(originalMime, originalBytes),
			MimeType: originalMime,
			Bytes:    len(originalBytes),
		}, nil
	}

	bounds := decoded.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()

	resized := resize(decoded, maxDim)
	outBounds := resized.Bounds()
	outWidth, outHeight := outBounds.Dx(), outBounds.Dy()

	var candidates []candidate
	if data, err := encodePNG(resized); err == nil {
		candidates = append(candidates, candidate{"image/png", data})
	}
	for _, quality := range jpegQualities {
		if data, err := encodeJPEG(resized, quality); err == nil {
			candidates = append(candidates, candidate{"image/jpeg", data})
		}
	}

	best := candidate{originalMime, originalBytes}
	bestWidth, bestHeight := origWidth, origHeight
	for _, c := range candidates {
		if len(c.data) < len(best.data) {
			best = c
			bestWidth, bestHeight = outWidth, outHeight
		}
	}

	return &Result{
		DataURL:  BuildDataURL(best.mimeType, best.data),
		MimeType: best.mimeType,
		Bytes:    len(best.data),
		Width:    bestWidth,
		Height:   bestHeight,
	}, nil
}

// resize scales img so that neither dimension exceeds maxDim, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func resize(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}

	scale := math.Min(float64(maxDim)/float64(width), float64(maxDim)/float64(height))
	newWidth := int(math.Max(math.Round(float64(width)*scale), 1))
	newHeight := int(math.Max(math.Round(float64(height)*scale), 1))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
