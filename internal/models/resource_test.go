package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentify(t *testing.T) {
	assert.Equal(t, "42", Identify(PexelsPhoto{ID: 42}))
	assert.Equal(t, "7", Identify(PixabayHit{ID: 7}))
	assert.Equal(t, "9000000001", Identify(FreepikResource{ID: 9000000001}))

	// Same id, different metadata, same key.
	a := PexelsPhoto{ID: 1, Alt: "first"}
	b := PexelsPhoto{ID: 1, Alt: "second"}
	assert.Equal(t, Identify(a), Identify(b))
	assert.NotEqual(t, Identify(a), Identify(PexelsPhoto{ID: 2}))
}

func TestPreviewURL(t *testing.T) {
	t.Run("Pexels prefers medium", func(t *testing.T) {
		p := PexelsPhoto{Src: PexelsSrc{Original: "o.jpg", Medium: "m.jpg"}}
		assert.Equal(t, "m.jpg", p.PreviewURL())
		p.Src.Medium = ""
		assert.Equal(t, "o.jpg", p.PreviewURL())
	})

	t.Run("Pixabay prefers webformat", func(t *testing.T) {
		h := PixabayHit{PreviewImageURL: "p.jpg", WebformatURL: "w.jpg"}
		assert.Equal(t, "w.jpg", h.PreviewURL())
		h.WebformatURL = ""
		assert.Equal(t, "p.jpg", h.PreviewURL())
	})

	t.Run("Freepik uses image source", func(t *testing.T) {
		r := FreepikResource{Image: FreepikImage{Source: FreepikSource{URL: "s.jpg"}}}
		assert.Equal(t, "s.jpg", r.PreviewURL())
	})
}
