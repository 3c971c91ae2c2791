package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vrsandeep/stockpile-go/internal/models"
)

// Registry holds the providers the application serves.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Describer
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Describer)}
}

// Register adds a new provider to the registry. It's called at startup.
func (r *Registry) Register(p Describer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := p.Info()
	if _, exists := r.providers[info.ID]; exists {
		// Panic is appropriate here as it's a developer error during setup.
		panic(fmt.Sprintf("provider with ID '%s' is already registered", info.ID))
	}
	r.providers[info.ID] = p
}

// Get returns a provider by its ID.
func (r *Registry) Get(id string) (Describer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// GetAll returns a list of information for all registered providers, sorted by ID.
func (r *Registry) GetAll() []models.ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := make([]models.ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p.Info())
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return providers
}
