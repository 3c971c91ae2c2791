package models

import "time"

// NotificationLevel is the severity shown to the user.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
	LevelSuccess NotificationLevel = "success"
)

// Notification codes emitted by the collection store and the archive pipeline.
const (
	CodeLimitReached     = "limit_reached"
	CodePartialAdd       = "partial_add"
	CodeBusy             = "busy"
	CodeCleared          = "cleared"
	CodeEmptyCollection  = "empty_collection"
	CodeItemFailed       = "item_failed"
	CodeRateLimited      = "rate_limited"
	CodeDownloadComplete = "download_complete"
	CodeArchiveFailed    = "archive_failed"
)

// Notification is a transient, user-facing message.
type Notification struct {
	Provider   string            `json:"provider"`
	Level      NotificationLevel `json:"level"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	ResourceID string            `json:"resource_id,omitempty"`
	Time       time.Time         `json:"time"`
}
