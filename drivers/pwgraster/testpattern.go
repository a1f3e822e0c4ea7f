package pwgraster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// testPattern renders a named diagnostic page, or nil if name is unknown.
func testPattern(name string, width int) image.Image {
	switch name {
	case "grid":
		return patternGrid(width)
	case "grayscale":
		return patternGrayscale(width)
	default:
		return nil
	}
}

// patternGrid draws a ruled grid every 50 dots, for checking scaling and
// margins on a full-page raster printer.
func patternGrid(width int) image.Image {
	height := width * 4 / 3
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for x := 0; x < width; x += 50 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.Black)
		}
	}
	for y := 0; y < height; y += 50 {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

// patternGrayscale draws a horizontal gradient from black to white, for
// checking a color-capable driver's tone reproduction.
func patternGrayscale(width int) image.Image {
	height := width / 4
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		v := uint8(255 * x / width)
		for y := 0; y < height; y++ {
			img.Set(x, y, color.Gray{Y: v})
		}
	}
	return img
}
