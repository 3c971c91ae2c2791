// This file defines the stock-image resources returned by the provider APIs.
// Each provider has its own record shape; they all satisfy Resource.

package models

import "strconv"

// Resource is the common view of a provider search result.
type Resource interface {
	// ResourceID is the provider-scoped numeric identifier.
	ResourceID() int64
	// PreviewURL is a small image suitable for a gallery card.
	PreviewURL() string
}

// Identify derives the stable key used for set membership in a collection.
func Identify[T Resource](r T) string {
	return strconv.FormatInt(r.ResourceID(), 10)
}

// PagedResult is one page of search results with paging metadata.
type PagedResult[T Resource] struct {
	Results    []T `json:"results"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// --- Pexels ---

// PexelsPhoto is a photo returned by the Pexels search API.
type PexelsPhoto struct {
	ID              int64     `json:"id"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	URL             string    `json:"url"`
	Photographer    string    `json:"photographer"`
	PhotographerURL string    `json:"photographer_url"`
	PhotographerID  int64     `json:"photographer_id"`
	AvgColor        string    `json:"avg_color"`
	Alt             string    `json:"alt"`
	Src             PexelsSrc `json:"src"`
}

// PexelsSrc lists the renditions Pexels serves for a photo.
type PexelsSrc struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Portrait  string `json:"portrait"`
	Landscape string `json:"landscape"`
	Tiny      string `json:"tiny"`
}

func (p PexelsPhoto) ResourceID() int64 { return p.ID }

func (p PexelsPhoto) PreviewURL() string {
	if p.Src.Medium != "" {
		return p.Src.Medium
	}
	return p.Src.Original
}

// --- Pixabay ---

// PixabayHit is an image returned by the Pixabay search API.
type PixabayHit struct {
	ID              int64  `json:"id"`
	PageURL         string `json:"pageURL"`
	Type            string `json:"type"`
	Tags            string `json:"tags"`
	PreviewImageURL string `json:"previewURL"`
	PreviewWidth    int    `json:"previewWidth"`
	PreviewHeight   int    `json:"previewHeight"`
	WebformatURL    string `json:"webformatURL"`
	WebformatWidth  int    `json:"webformatWidth"`
	WebformatHeight int    `json:"webformatHeight"`
	LargeImageURL   string `json:"largeImageURL"`
	ImageWidth      int    `json:"imageWidth"`
	ImageHeight     int    `json:"imageHeight"`
	ImageSize       int64  `json:"imageSize"`
	Views           int    `json:"views"`
	Downloads       int    `json:"downloads"`
	Likes           int    `json:"likes"`
	User            string `json:"user"`
	UserID          int64  `json:"user_id"`
	UserImageURL    string `json:"userImageURL"`
}

func (h PixabayHit) ResourceID() int64 { return h.ID }

func (h PixabayHit) PreviewURL() string {
	if h.WebformatURL != "" {
		return h.WebformatURL
	}
	return h.PreviewImageURL
}

// --- Freepik ---

// FreepikResource is a photo, vector or illustration returned by the Freepik API.
// Its full-resolution file is not linked directly; a download link has to be
// requested for the id.
type FreepikResource struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	URL      string        `json:"url"`
	Filename string        `json:"filename"`
	Licenses []FreepikLink `json:"licenses,omitempty"`
	Products []FreepikLink `json:"products,omitempty"`
	Meta     FreepikMeta   `json:"meta"`
	Image    FreepikImage  `json:"image"`
	Stats    FreepikStats  `json:"stats"`
	Author   FreepikAuthor `json:"author"`
	Active   bool          `json:"active"`
}

type FreepikLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type FreepikMeta struct {
	PublishedAt string `json:"published_at"`
	IsNew       bool   `json:"is_new"`
}

type FreepikImage struct {
	Type        string        `json:"type"`
	Orientation string        `json:"orientation"`
	Source      FreepikSource `json:"source"`
}

// FreepikSource is the preview rendition; Size is "<width>x<height>".
type FreepikSource struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size string `json:"size"`
}

type FreepikStats struct {
	Downloads int `json:"downloads"`
	Likes     int `json:"likes"`
}

type FreepikAuthor struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Assets int    `json:"assets"`
	Slug   string `json:"slug"`
}

func (r FreepikResource) ResourceID() int64 { return r.ID }

func (r FreepikResource) PreviewURL() string { return r.Image.Source.URL }
