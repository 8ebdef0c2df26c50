package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// PlaceholderColor is the light blue used when no icon could be loaded.
var PlaceholderColor = color.RGBA{R: 0xAD, G: 0xD8, B: 0xE6, A: 0xFF}

// normalize decodes a PNG, JPEG or GIF, scales it to size x size and
// re-encodes it as PNG.
func normalize(raw []byte, size int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode icon: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return encodePNG(dst)
}

// placeholderPNG renders a solid PlaceholderColor square.
func placeholderPNG(size int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: PlaceholderColor}, image.Point{}, draw.Src)
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}
	return buf.Bytes(), nil
}
