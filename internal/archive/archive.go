// Package archive builds the zip archive of a collection in memory.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/mholt/archives"
)

var unsafeChars = regexp.MustCompile(`[\x00\\/:*?"<>|]`)

// Writer collects entries and encodes them into a zip on Close. Entries keep
// the order in which they were added. A Writer that is never closed is simply
// discarded.
type Writer struct {
	files  []archives.FileInfo
	names  map[string]int
	format archives.Zip
	now    func() time.Time
}

func NewWriter() *Writer {
	return &Writer{
		names: make(map[string]int),
		// Images are already compressed; SelectiveCompression stores them as they are.
		format: archives.Zip{SelectiveCompression: true, Compression: zip.Deflate},
		now:    time.Now,
	}
}

// Add stores data under name, sanitised and made unique within the archive.
// It returns the name actually used.
func (w *Writer) Add(name string, data []byte) string {
	name = w.unique(SanitizeFilename(name))
	info := &memInfo{name: name, size: int64(len(data)), modTime: w.now()}
	w.files = append(w.files, archives.FileInfo{
		FileInfo:      info,
		NameInArchive: name,
		Open: func() (fs.File, error) {
			return &memFile{Reader: bytes.NewReader(data), info: info}, nil
		},
	})
	return name
}

// unique appends _2, _3, ... before the extension of a repeated name.
func (w *Writer) unique(name string) string {
	w.names[name]++
	n := w.names[name]
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	return w.unique(candidate)
}

// Len is the number of entries added so far.
func (w *Writer) Len() int { return len(w.files) }

// Close encodes every entry and returns the finished archive.
func (w *Writer) Close(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.format.Archive(ctx, &buf, w.files); err != nil {
		return nil, fmt.Errorf("failed to write zip archive: %w", err)
	}
	return buf.Bytes(), nil
}

// SanitizeFilename replaces characters that are not allowed in file names.
func SanitizeFilename(filename string) string {
	safe := unsafeChars.ReplaceAllString(filename, "-")
	for strings.HasPrefix(safe, ".") || strings.HasPrefix(safe, "-") {
		safe = safe[1:]
	}
	if safe == "" {
		safe = "untitled"
	}
	return safe
}

type memInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (m *memInfo) Name() string       { return m.name }
func (m *memInfo) Size() int64        { return m.size }
func (m *memInfo) Mode() fs.FileMode  { return 0644 }
func (m *memInfo) ModTime() time.Time { return m.modTime }
func (m *memInfo) IsDir() bool        { return false }
func (m *memInfo) Sys() any           { return nil }

type memFile struct {
	*bytes.Reader
	info *memInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Close() error               { return nil }
