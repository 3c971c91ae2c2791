// Package notify delivers user-facing notifications and progress updates.
// Delivery is fire-and-forget: a sink never blocks the caller.
package notify

import (
	"log"

	"github.com/vrsandeep/stockpile-go/internal/models"
)

// Message types sent over the websocket.
const (
	TypeNotification = "notification"
	TypeProgress     = "progress"
)

// Message is the websocket envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Reporter is implemented by every sink.
type Reporter interface {
	Notify(n models.Notification)
	Progress(u models.ProgressUpdate)
}

// Broadcaster is satisfied by *websocket.Hub.
type Broadcaster interface {
	BroadcastJSON(v any)
}

// Log writes notifications to the standard logger. Progress is only logged
// when an update is final.
type Log struct{}

func (Log) Notify(n models.Notification) {
	if n.ResourceID != "" {
		log.Printf("[%s] %s %s (%s): %s", n.Provider, n.Level, n.Code, n.ResourceID, n.Message)
		return
	}
	log.Printf("[%s] %s %s: %s", n.Provider, n.Level, n.Code, n.Message)
}

func (Log) Progress(u models.ProgressUpdate) {
	if u.Done {
		log.Printf("[%s] %s %s: %s", u.Provider, u.JobID, u.Status, u.Message)
	}
}

// Hub forwards everything to the connected browsers.
type Hub struct {
	b Broadcaster
}

func NewHub(b Broadcaster) Hub { return Hub{b: b} }

func (h Hub) Notify(n models.Notification) {
	h.b.BroadcastJSON(Message{Type: TypeNotification, Data: n})
}

func (h Hub) Progress(u models.ProgressUpdate) {
	h.b.BroadcastJSON(Message{Type: TypeProgress, Data: u})
}

// Multi fans out to several reporters in order.
type Multi []Reporter

func (m Multi) Notify(n models.Notification) {
	for _, r := range m {
		r.Notify(n)
	}
}

func (m Multi) Progress(u models.ProgressUpdate) {
	for _, r := range m {
		r.Progress(u)
	}
}
