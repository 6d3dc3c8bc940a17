package colorsort

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

// Profile identifies a quantised colour bucket.
type Profile int

// sampleEdge bounds the sampling grid; larger frames are sampled with a stride.
const sampleEdge = 256

// DominantProfile returns the most populated colour bucket of img.
func DominantProfile(img image.Image, levels int) Profile {
	if levels < 2 {
		levels = 2
	}
	b := img.Bounds()
	step := max(1, max(b.Dx(), b.Dy())/sampleEdge)

	counts := make(map[Profile]int)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			p := Profile((quantise(r, levels)*levels+quantise(g, levels))*levels + quantise(bl, levels))
			counts[p]++
		}
	}
	return argmax(counts)
}

// quantise maps a 16-bit channel value onto [0, levels).
func quantise(v uint32, levels int) int {
	q := int(v) * levels / 0x10000
	return min(q, levels-1)
}

// argmax picks the highest count, lowest key on ties.
func argmax(counts map[Profile]int) Profile {
	best, bestN := Profile(-1), -1
	for p, n := range counts {
		if n > bestN || (n == bestN && p < best) {
			best, bestN = p, n
		}
	}
	return best
}

// FileProfile decodes a JPEG and returns its dominant profile.
func FileProfile(path string, levels int) (Profile, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the photo directory walk
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	img, err := jpeg.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return DominantProfile(img, levels), nil
}
