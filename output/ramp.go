package output

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

const (
	RampWidth  = 1024
	RampHeight = 64
)

var ErrEmptyRamp = errors.New("key ramp needs at least one primitive")

// KeyRamp builds a RampWidth x RampHeight gray strip: primitives left to
// right in draw order, brightness from the high byte of each key. A correctly
// sorted ascending frame is a monotone ramp.
func KeyRamp(order, keys []uint32) (*image.NRGBA, error) {
	if len(order) == 0 {
		return nil, ErrEmptyRamp
	}

	strip := image.NewNRGBA(image.Rect(0, 0, len(order), 1))
	for x, idx := range order {
		if int(idx) >= len(keys) {
			return nil, fmt.Errorf("order index %d out of range for %d keys", idx, len(keys))
		}
		v := uint8(keys[idx] >> 8)
		strip.SetNRGBA(x, 0, color.NRGBA{R: v, G: v, B: v, A: 0xFF})
	}

	dst := image.NewNRGBA(image.Rect(0, 0, RampWidth, RampHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), strip, strip.Bounds(), draw.Src, nil)
	return dst, nil
}

// WriteKeyRamp encodes the key ramp of one frame as lossless WebP.
func WriteKeyRamp(filename string, order, keys []uint32) error {
	img, err := KeyRamp(order, keys)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create ramp file %s: %w", filename, err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("WebP encode: %w", err)
	}
	return nil
}
