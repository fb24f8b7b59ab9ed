package media

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/chapterdapp/chapterd/internal/errors"
)

// placeholderSize bounds the thumbnail used for blurhash computation. The
// hash is a low-resolution placeholder, so anything bigger is wasted work.
const placeholderSize = 64

// CoverPlaceholder computes a blurhash for a cover image, served alongside
// job results so clients can paint a placeholder before fetching the art.
func CoverPlaceholder(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open cover image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", errors.Wrap(err, "decode cover image")
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", errors.Wrap(err, "encode blurhash")
	}
	return hash, nil
}

// thumbnail downscales with nearest-neighbor sampling, which is plenty for a
// blurhash input.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= placeholderSize && h <= placeholderSize {
		return img
	}

	dw, dh := placeholderSize, placeholderSize
	if w > h {
		dh = max(1, h*placeholderSize/w)
	} else {
		dw = max(1, w*placeholderSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := range dh {
		for x := range dw {
			dst.Set(x, y, img.At(bounds.Min.X+x*w/dw, bounds.Min.Y+y*h/dh))
		}
	}
	return dst
}
