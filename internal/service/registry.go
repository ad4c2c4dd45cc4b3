package service

import (
	"context"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"sort"
	"sync"
)

// DatasetRegistry is the in-process index of known datasets, loaded from the
// store at boot and kept current as datasets are created. It replaces any
// need to hit Redis on every request just to validate a dataset id.
type DatasetRegistry struct {
	mu     sync.RWMutex
	ids    []string
	labels map[string]string
}

func NewDatasetRegistry() *DatasetRegistry {
	return &DatasetRegistry{labels: map[string]string{}}
}

// Load replaces the registry contents with the dataset set from the store,
// in sorted order so question serving stays stable across restarts.
func (g *DatasetRegistry) Load(ctx context.Context, repo *repository.DatasetRepository) error {
	ids, err := repo.ListIDs(ctx)
	if err != nil {
		return err
	}
	sort.Strings(ids)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.ids = ids
	g.labels = make(map[string]string, len(ids))
	for _, id := range ids {
		g.labels[id] = id
	}
	return nil
}

func (g *DatasetRegistry) Contains(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.labels[id]
	return ok
}

func (g *DatasetRegistry) Add(id, label string) {
	if label == "" {
		label = id
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.labels[id]; ok {
		g.labels[id] = label
		return
	}
	g.ids = append(g.ids, id)
	g.labels[id] = label
}

func (g *DatasetRegistry) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.labels[id]; !ok {
		return
	}
	delete(g.labels, id)
	for i, cur := range g.ids {
		if cur == id {
			g.ids = append(g.ids[:i], g.ids[i+1:]...)
			break
		}
	}
}

func (g *DatasetRegistry) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

func (g *DatasetRegistry) Infos() []model.DatasetInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.DatasetInfo, len(g.ids))
	for i, id := range g.ids {
		out[i] = model.DatasetInfo{ID: id, Label: g.labels[id]}
	}
	return out
}
