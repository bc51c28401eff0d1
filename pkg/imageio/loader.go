// Package imageio loads a source picture and turns it into the fixed-size
// intensity grid the decomposition runs on.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/mat"
)

// DefaultSize is the square resolution images are resized to.
const DefaultSize = 86

var (
	// ErrInvalidImage wraps decode and read failures.
	ErrInvalidImage = errors.New("imageio: invalid source image")
	// ErrInvalidSize is returned for non-positive target sizes.
	ErrInvalidSize = errors.New("imageio: target size must be positive")
)

// Channel selects how a color pixel becomes one intensity.
type Channel int

const (
	// ChannelRed keeps the first (red) channel.
	ChannelRed Channel = iota
	// ChannelLuma uses the ITU-R 601 luma of color.GrayModel.
	ChannelLuma
)

func (c Channel) String() string {
	if c == ChannelLuma {
		return "luma"
	}
	return "red"
}

// ParseChannel parses "red" or "luma".
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "red":
		return ChannelRed, nil
	case "luma", "gray", "grey":
		return ChannelLuma, nil
	default:
		return 0, fmt.Errorf("imageio: unknown channel %q", s)
	}
}

// Params controls preprocessing of the source image.
type Params struct {
	// Size is the side of the square grid; zero means DefaultSize.
	Size    int
	Channel Channel
	// Interpolator resamples to Size x Size; nil means draw.CatmullRom.
	Interpolator draw.Interpolator
}

// Load reads and preprocesses the image at path.
func Load(path string, params Params) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer file.Close()

	return Decode(file, params)
}

// LoadBytes preprocesses an encoded image held in memory.
func LoadBytes(data []byte, params Params) (*mat.Dense, error) {
	return Decode(bytes.NewReader(data), params)
}

// Decode decodes any registered format (png, jpeg, gif, bmp, tiff, webp)
// and preprocesses it.
func Decode(r io.Reader, params Params) (*mat.Dense, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return ToGrid(img, params)
}

// ToGrid resizes img to Size x Size and extracts one intensity per pixel
// in the 0-255 range. Row r, column c of the result is pixel (x=c, y=r).
func ToGrid(img image.Image, params Params) (*mat.Dense, error) {
	size := params.Size
	if size == 0 {
		size = DefaultSize
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty bounds", ErrInvalidImage)
	}
	interp := params.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}

	// NRGBA keeps stored (non-premultiplied) values, so translucent pixels
	// are not darkened by their alpha.
	resized := image.NewNRGBA(image.Rect(0, 0, size, size))
	interp.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	grid := mat.NewDense(size, size, nil)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := resized.NRGBAAt(x, y)
			var v uint8
			if params.Channel == ChannelLuma {
				opaque := color.RGBA{R: px.R, G: px.G, B: px.B, A: 255}
				v = color.GrayModel.Convert(opaque).(color.Gray).Y
			} else {
				v = px.R
			}
			grid.Set(y, x, float64(v))
		}
	}
	return grid, nil
}
