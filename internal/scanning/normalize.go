package scanning

import (
	"image"
	"image/draw"
)

// contrastFactor is the fixed multiplicative contrast boost applied to every
// receipt before recognition.
const contrastFactor = 1.5

// Normalize prepares a receipt photo for text recognition: it converts the
// image to single-channel grayscale and stretches the contrast by
// contrastFactor around the mean gray level. No geometric transform (deskew,
// crop) is applied. The function is pure; the same input always produces a
// byte-identical output.
func Normalize(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	if len(gray.Pix) == 0 {
		return gray
	}

	var sum uint64
	for _, v := range gray.Pix {
		sum += uint64(v)
	}
	mean := float64(sum) / float64(len(gray.Pix))

	for i, v := range gray.Pix {
		boosted := mean + (float64(v)-mean)*contrastFactor
		switch {
		case boosted < 0:
			gray.Pix[i] = 0
		case boosted > 255:
			gray.Pix[i] = 255
		default:
			gray.Pix[i] = uint8(boosted + 0.5)
		}
	}

	return gray
}
