package notify

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/stockpile-go/internal/models"
)

type fakeBroadcaster struct {
	sent []any
}

func (f *fakeBroadcaster) BroadcastJSON(v any) { f.sent = append(f.sent, v) }

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestMultiFansOut(t *testing.T) {
	buf := captureLog(t)
	b := &fakeBroadcaster{}
	r := Multi{Log{}, NewHub(b)}

	r.Notify(models.Notification{Provider: "freepik", Level: models.LevelWarning, Code: models.CodeLimitReached, Message: "Limit reached (50 images)"})
	r.Progress(models.ProgressUpdate{JobID: "run-1", Provider: "freepik", Progress: 50})
	r.Progress(models.ProgressUpdate{JobID: "run-1", Provider: "freepik", Status: "completed", Message: "Downloaded 2 of 2 images", Done: true})

	require.Len(t, b.sent, 3)
	first := b.sent[0].(Message)
	assert.Equal(t, TypeNotification, first.Type)
	assert.Equal(t, TypeProgress, b.sent[1].(Message).Type)

	out := buf.String()
	assert.Contains(t, out, "[freepik] warning limit_reached: Limit reached (50 images)")
	assert.Contains(t, out, "run-1 completed")
	assert.NotContains(t, out, "50.0")
}

func TestLogIncludesResource(t *testing.T) {
	buf := captureLog(t)
	Log{}.Notify(models.Notification{Provider: "pexels", Level: models.LevelError, Code: models.CodeItemFailed, ResourceID: "42", Message: "boom"})
	assert.Contains(t, buf.String(), "[pexels] error item_failed (42): boom")
}
