package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/vrsandeep/stockpile-go/internal/collection"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/pipeline"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

// ErrInvalidResource is returned when a resource does not decode into the
// provider's record type.
var ErrInvalidResource = errors.New("invalid resource")

// Binding is the untyped face of one provider: its connector, its collection
// and its download pipeline. Resources cross it as raw JSON so the HTTP layer
// does not need to know each provider's record shape.
type Binding interface {
	Info() models.ProviderInfo
	Search(ctx context.Context, params url.Values, apiKey string) (any, error)
	Snapshot() any
	AddMany(resources json.RawMessage) (collection.AddResult, error)
	RemoveMany(resources json.RawMessage) (int, error)
	Toggle(resource json.RawMessage) (bool, error)
	Clear() error
	PreviewURL(resourceID string) (string, bool)
	StartDownload(ctx context.Context, apiKey string) (models.DownloadRun, error)
	RunDownload(ctx context.Context, apiKey string) (*pipeline.RunResult, error)
	DownloadStatus() models.DownloadRun
}

type binding[T models.Resource] struct {
	provider provider.Provider[T]
	store    *collection.Store[T]
	runner   *pipeline.Runner[T]
}

func newBinding[T models.Resource](p provider.Provider[T], store *collection.Store[T], opts pipeline.Options[T]) *binding[T] {
	opts.Store = store
	opts.Downloader = p
	return &binding[T]{provider: p, store: store, runner: pipeline.New(opts)}
}

func (b *binding[T]) Info() models.ProviderInfo { return b.provider.Info() }

func (b *binding[T]) Search(ctx context.Context, params url.Values, apiKey string) (any, error) {
	return b.provider.Search(ctx, params, apiKey)
}

func (b *binding[T]) Snapshot() any { return b.store.Snapshot() }

func decodeList[T models.Resource](raw json.RawMessage) ([]T, error) {
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	return out, nil
}

func (b *binding[T]) AddMany(raw json.RawMessage) (collection.AddResult, error) {
	resources, err := decodeList[T](raw)
	if err != nil {
		return collection.AddResult{}, err
	}
	return b.store.AddMany(resources)
}

func (b *binding[T]) RemoveMany(raw json.RawMessage) (int, error) {
	resources, err := decodeList[T](raw)
	if err != nil {
		return 0, err
	}
	return b.store.RemoveMany(resources)
}

func (b *binding[T]) Toggle(raw json.RawMessage) (bool, error) {
	var resource T
	if err := json.Unmarshal(raw, &resource); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	return b.store.Toggle(resource)
}

func (b *binding[T]) Clear() error { return b.store.Clear() }

func (b *binding[T]) PreviewURL(resourceID string) (string, bool) {
	r, ok := b.store.Find(resourceID)
	if !ok {
		return "", false
	}
	return r.PreviewURL(), true
}

func (b *binding[T]) StartDownload(ctx context.Context, apiKey string) (models.DownloadRun, error) {
	return b.runner.Start(ctx, apiKey)
}

func (b *binding[T]) RunDownload(ctx context.Context, apiKey string) (*pipeline.RunResult, error) {
	return b.runner.Run(ctx, apiKey)
}

func (b *binding[T]) DownloadStatus() models.DownloadRun { return b.runner.Status() }
