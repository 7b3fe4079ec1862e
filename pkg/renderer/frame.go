package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// Frame is a finished RGB byte buffer of Width*Height*3 bytes.
// Rows run bottom to top; each pixel is R, G, B.
type Frame struct {
	Number int
	Width  int
	Height int
	Pixels []byte
	Stats  RenderStats
}

// NewFrame allocates a black frame
func NewFrame(number, width, height int) *Frame {
	return &Frame{
		Number: number,
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*3),
	}
}

// offset returns the buffer index of the pixel at (row, column), row 0 being the bottom row
func (f *Frame) offset(row, column int) int {
	return (row*f.Width + column) * 3
}

// Set stores an already quantized pixel
func (f *Frame) Set(row, column int, rgb [3]byte) {
	i := f.offset(row, column)
	copy(f.Pixels[i:i+3], rgb[:])
}

// At returns the pixel at (row, column), row 0 being the bottom row
func (f *Frame) At(row, column int) [3]byte {
	i := f.offset(row, column)
	return [3]byte{f.Pixels[i], f.Pixels[i+1], f.Pixels[i+2]}
}

// ToImage converts the frame to a top-down RGBA image suitable for PNG encoding
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for row := 0; row < f.Height; row++ {
		for column := 0; column < f.Width; column++ {
			rgb := f.At(row, column)
			img.SetRGBA(column, f.Height-1-row, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
	return img
}

// AverageLuminance returns the mean Rec. 709 luminance of the frame in [0, 1]
func (f *Frame) AverageLuminance() float64 {
	pixels := len(f.Pixels) / 3
	if pixels == 0 {
		return 0
	}
	var total float64
	for i := 0; i < len(f.Pixels); i += 3 {
		total += 0.2126*float64(f.Pixels[i]) + 0.7152*float64(f.Pixels[i+1]) + 0.0722*float64(f.Pixels[i+2])
	}
	return total / 255.0 / float64(pixels)
}

// GammaCorrect applies gamma 2 correction to a linear color
func GammaCorrect(linear core.Vec3) core.Vec3 {
	return linear.Sqrt()
}

// Quantize converts a display color to bytes. Components are clamped to [0, 1]
// (NaN becomes 0) before scaling by 255.999 and truncating.
func Quantize(c core.Vec3) [3]byte {
	c = c.Clamp(0.0, 1.0)
	return [3]byte{
		byte(255.999 * c.X),
		byte(255.999 * c.Y),
		byte(255.999 * c.Z),
	}
}

// PixelBytes gamma corrects and quantizes an averaged linear color
func PixelBytes(linear core.Vec3) [3]byte {
	return Quantize(GammaCorrect(linear))
}
