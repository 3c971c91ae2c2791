// Package preview produces the small JPEG thumbnails shown on collection cards.
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
)

// CardWidth is the width of a gallery card.
const CardWidth uint = 300

const cacheSize = 256

// Thumbnail decodes imageData and scales it down to width, keeping the aspect
// ratio. Smaller images are only re-encoded.
func Thumbnail(imageData []byte, width uint) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if uint(img.Bounds().Dx()) > width {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	// Encode the resized image as a JPEG. Quality 75 is a good balance.
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI formats a JPEG as a data URI.
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}

// Service fetches preview images and keeps the resulting thumbnails in an LRU cache.
type Service struct {
	client *fetch.Client
	cache  *lru.Cache[string, []byte]
}

func NewService(client *fetch.Client) *Service {
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Service{client: client, cache: cache}
}

// Get returns the thumbnail of the image at url.
func (s *Service) Get(ctx context.Context, url string) ([]byte, error) {
	if thumb, ok := s.cache.Get(url); ok {
		return thumb, nil
	}
	data, err := s.client.Bytes(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	thumb, err := Thumbnail(data, CardWidth)
	if err != nil {
		return nil, err
	}
	s.cache.Add(url, thumb)
	return thumb, nil
}
