package scanning

import (
	"image"
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// testReceiptImage builds a small color image with a light background and
// darker text-like pixels
func testReceiptImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 220, G: 210, B: 200, A: 255})
		}
	}
	for x := 1; x < 7; x++ {
		img.Set(x, 3, color.RGBA{R: 40, G: 40, B: 50, A: 255})
	}
	return img
}

var _ = Describe("Normalize", func() {
	var (
		input  *image.RGBA
		output *image.Gray
	)

	BeforeEach(func() {
		input = testReceiptImage()
	})

	JustBeforeEach(func() {
		output = Normalize(input)
	})

	It("produces a single-channel image", func() {
		Expect(output.ColorModel()).To(Equal(color.GrayModel))
	})

	It("preserves the input bounds", func() {
		Expect(output.Bounds()).To(Equal(input.Bounds()))
	})

	It("is deterministic", func() {
		again := Normalize(testReceiptImage())
		Expect(again.Pix).To(Equal(output.Pix))
	})

	It("does not mutate the input image", func() {
		Expect(input.Pix).To(Equal(testReceiptImage().Pix))
	})

	It("pushes dark pixels darker and light pixels lighter", func() {
		flat := Normalize(testReceiptImage())

		plain := image.NewGray(input.Bounds())
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				plain.Set(x, y, color.GrayModel.Convert(input.At(x, y)))
			}
		}

		// Text row gets darker than plain grayscale, background lighter
		Expect(flat.GrayAt(3, 3).Y).To(BeNumerically("<", plain.GrayAt(3, 3).Y))
		Expect(flat.GrayAt(0, 0).Y).To(BeNumerically(">", plain.GrayAt(0, 0).Y))
	})

	When("the image is empty", func() {
		BeforeEach(func() {
			input = image.NewRGBA(image.Rect(0, 0, 0, 0))
		})

		It("returns an empty grayscale image without panicking", func() {
			Expect(output.Pix).To(BeEmpty())
		})
	})
})
