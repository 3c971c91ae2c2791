package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/vrsandeep/stockpile-go/internal/collection"
	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/core"
)

// queryParam is the search term parameter of each provider API.
var queryParam = map[string]string{
	config.ProviderPexels:  "query",
	config.ProviderPixabay: "q",
	config.ProviderFreepik: "term",
}

func main() {
	providerID := flag.String("provider", config.ProviderPexels, "provider to search (pexels, pixabay, freepik)")
	query := flag.String("query", "", "search term")
	pages := flag.Int("pages", 1, "number of result pages to add to the collection")
	out := flag.String("out", ".", "directory the archive is written to")
	apiKey := flag.String("apikey", "", "API key, overrides the configured one")
	flag.Parse()

	if *query == "" {
		log.Fatal("A search term is required (-query)")
	}
	param, ok := queryParam[*providerID]
	if !ok {
		log.Fatalf("Unknown provider %q", *providerID)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// The CLI works on a throwaway collection.
	cfg.Session.Backend = config.BackendMemory

	app, err := core.NewWithConfig(cfg)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	b, _ := app.Binding(*providerID)
	key := app.APIKey(*providerID, *apiKey)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for page := 1; page <= *pages; page++ {
		params := url.Values{param: {*query}, "page": {strconv.Itoa(page)}}
		results, err := b.Search(ctx, params, key)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		added, err := addResults(b, results)
		if errors.Is(err, collection.ErrLimitReached) {
			break
		}
		if err != nil {
			log.Fatalf("Could not add page %d: %v", page, err)
		}
		log.Printf("Page %d: added %d images (%d duplicates, %d over the limit)", page, added.Added, added.Duplicates, added.Truncated)
		if added.Truncated > 0 {
			break
		}
	}

	result, err := b.RunDownload(ctx, key)
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}

	dest := filepath.Join(*out, result.Artifact)
	if err := copyArtifact(app, result.Artifact, dest); err != nil {
		log.Fatalf("Could not write archive: %v", err)
	}
	fmt.Printf("%d of %d images saved to %s (%d failed)\n", result.Succeeded, result.Total, dest, result.Failed)
}

func addResults(b core.Binding, page any) (collection.AddResult, error) {
	data, err := json.Marshal(page)
	if err != nil {
		return collection.AddResult{}, err
	}
	var decoded struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return collection.AddResult{}, err
	}
	return b.AddMany(decoded.Results)
}

func copyArtifact(app *core.App, name, dest string) error {
	src, _, err := app.Artifacts().Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
