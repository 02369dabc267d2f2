package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"

	// Decoders for candidates fetched from the web.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// DefaultMinDimension is the size the short side of a normalized image is raised to.
const DefaultMinDimension = 1080

// roundingSlack absorbs float error so that e.g. 1920/(16/9) lands on 1080, not 1079.
const roundingSlack = 1e-9

// CropRect returns the centered crop of a width x height image that has aspect
// ratio ratio. Dimensions are truncated, margins split evenly.
func CropRect(width, height int, ratio float64) image.Rectangle {
	if width <= 0 || height <= 0 || ratio <= 0 {
		return image.Rect(0, 0, width, height)
	}
	cw, ch := width, height
	if float64(width)/float64(height) > ratio {
		cw = int(float64(height)*ratio + roundingSlack)
	} else {
		ch = int(float64(width)/ratio + roundingSlack)
	}
	cw = clamp(cw, 1, width)
	ch = clamp(ch, 1, height)
	x0 := (width - cw) / 2
	y0 := (height - ch) / 2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

// UpscaleSize returns the size after a uniform upscale that brings both axes to
// at least minDim. Images already large enough keep their size.
func UpscaleSize(width, height, minDim int) (int, int) {
	if width <= 0 || height <= 0 || minDim <= 0 {
		return width, height
	}
	sx := float64(minDim) / float64(width)
	sy := float64(minDim) / float64(height)
	s := sx
	if sy > s {
		s = sy
	}
	if s <= 1 {
		return width, height
	}
	return int(float64(width)*s + roundingSlack), int(float64(height)*s + roundingSlack)
}

// Normalize crops img to ratio around its center, flattens it to opaque RGBA and
// upscales it with Catmull-Rom when an axis is below minDim.
func Normalize(img image.Image, ratio float64, minDim int) image.Image {
	b := img.Bounds()
	crop := CropRect(b.Dx(), b.Dy(), ratio).Add(b.Min)

	flat := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	xdraw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(flat, flat.Bounds(), img, crop.Min, xdraw.Over)

	w, h := UpscaleSize(crop.Dx(), crop.Dy(), minDim)
	if w == crop.Dx() && h == crop.Dy() {
		return flat
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), flat, flat.Bounds(), xdraw.Src, nil)
	return dst
}

// Decode decodes a JPEG, PNG, GIF or WebP payload.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeBytes decodes data, normalizes it and re-encodes it as PNG.
func NormalizeBytes(data []byte, ratio float64, minDim int) ([]byte, image.Rectangle, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	out := Normalize(img, ratio, minDim)
	encoded, err := EncodePNG(out)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	return encoded, out.Bounds(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
