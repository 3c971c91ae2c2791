package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestThumbnail(t *testing.T) {
	t.Run("Wide image is scaled to the card width", func(t *testing.T) {
		thumb, err := Thumbnail(makePNG(t, 600, 400), CardWidth)
		require.NoError(t, err)
		img := decodeJPEG(t, thumb)
		assert.Equal(t, 300, img.Bounds().Dx())
		assert.Equal(t, 200, img.Bounds().Dy())
	})

	t.Run("Small image is not enlarged", func(t *testing.T) {
		thumb, err := Thumbnail(makePNG(t, 120, 80), CardWidth)
		require.NoError(t, err)
		assert.Equal(t, 120, decodeJPEG(t, thumb).Bounds().Dx())
	})

	t.Run("Invalid data", func(t *testing.T) {
		_, err := Thumbnail([]byte("this is not an image"), CardWidth)
		assert.Error(t, err)
	})
}

func TestDataURI(t *testing.T) {
	uri := DataURI([]byte{0xff, 0xd8})
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

func TestServiceCachesThumbnails(t *testing.T) {
	var hits int32
	pngData := makePNG(t, 400, 400)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(pngData)
	}))
	defer server.Close()

	s := NewService(fetch.New(5*time.Second, 0))
	first, err := s.Get(context.Background(), server.URL+"/preview.png")
	require.NoError(t, err)
	second, err := s.Get(context.Background(), server.URL+"/preview.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 300, decodeJPEG(t, first).Bounds().Dx())
}
