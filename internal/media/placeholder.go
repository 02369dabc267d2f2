package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
)

// PlaceholderSize returns the exact-ratio canvas whose short side is shortSide.
func PlaceholderSize(ratio float64, shortSide int) (int, int) {
	if shortSide <= 0 {
		shortSide = DefaultMinDimension
	}
	if ratio <= 0 {
		return shortSide, shortSide
	}
	if ratio >= 1 {
		return int(float64(shortSide)*ratio + roundingSlack), shortSide
	}
	return shortSide, int(float64(shortSide)/ratio + roundingSlack)
}

// Placeholder renders a striped dark card for a scene nothing could be found for.
// The same seed always yields the same picture.
func Placeholder(ratio float64, shortSide int, seed string) image.Image {
	width, height := PlaceholderSize(ratio, shortSide)
	hash := seedHash(seed)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := darken(colorFromSeed(hash, 0))
	accent := darken(colorFromSeed(hash, 1))
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := max(32, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, min(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(hash, 2)
	step := max(16, width/32)
	for x := 0; x < width; x += step {
		for y := 0; y < height; y++ {
			xx := x + y
			if xx >= width {
				break
			}
			img.Set(xx, y, diagonal)
		}
	}
	return img
}

// PlaceholderPNG renders the placeholder as PNG bytes.
func PlaceholderPNG(ratio float64, shortSide int, seed string) ([]byte, error) {
	return EncodePNG(Placeholder(ratio, shortSide, seed))
}

func seedHash(seed string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("placeholder|%s", seed)))
	return hex.EncodeToString(sum[:])[:18]
}

func colorFromSeed(seed string, shift int) color.RGBA {
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: hexByte(segment[0:2]), G: hexByte(segment[2:4]), B: hexByte(segment[4:6]), A: 255}
}

func darken(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R / 3, G: c.G / 3, B: c.B / 3, A: 255}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
