package lxd02

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// testPatterns are diagnostic raster patterns for TestPage, adapted from
// the thermoprint CLI's test-pattern generators.
var testPatterns = map[string]func(int) image.Image{
	"running-lines": patternRunningLines,
	"millimetres":   patternMillimetres,
	"sine":          patternSine,
}

// patternRunningLines draws 8 lines, each 2 pixels high, shifted one pixel
// to the right of the last, exercising the printer's packet framing.
func patternRunningLines(maxX int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, maxX, 16))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for y := 0; y < 8; y++ {
		for x := 0; x < maxX; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y*2, color.Black)
				img.Set(x, y*2+1, color.Black)
			}
		}
	}
	return img
}

// patternMillimetres draws ruled lines every 40 dots, for checking feed
// calibration against a physical ruler.
func patternMillimetres(maxX int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, maxX, lineWidth/8))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := y * 8; x < maxX; x += 40 {
			for x1 := x; x1 < x+8 && x1 < maxX; x1++ {
				img.Set(x1, y, color.Black)
			}
		}
	}
	return img
}

// patternSine draws a single sinusoidal trace across the page width.
func patternSine(maxX int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, maxX, 64))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for x := 0; x < maxX; x++ {
		y := int(32 + 30*math.Sin(float64(x)*2*math.Pi/100))
		if y >= 0 && y < img.Bounds().Dy() {
			img.Set(x, y, color.Black)
		}
	}
	return img
}
