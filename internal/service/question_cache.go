package service

import (
	"context"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"sync"
)

// QuestionCache is a read-through cache of dataset question lists. Question
// order inside a dataset is fixed by the first load and only changes on
// explicit invalidation, which is what makes the "first unanswered question"
// scan deterministic for a running server.
type QuestionCache struct {
	mu        sync.RWMutex
	byDataset map[string][]model.Question
	datasets  *repository.DatasetRepository
}

func NewQuestionCache(datasets *repository.DatasetRepository) *QuestionCache {
	return &QuestionCache{
		byDataset: map[string][]model.Question{},
		datasets:  datasets,
	}
}

func (c *QuestionCache) Get(ctx context.Context, ds string) ([]model.Question, error) {
	c.mu.RLock()
	qs, ok := c.byDataset[ds]
	c.mu.RUnlock()
	if ok {
		return qs, nil
	}

	qs, err := c.datasets.GetQuestions(ctx, ds)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byDataset[ds] = qs
	c.mu.Unlock()
	return qs, nil
}

// Invalidate drops the cached list; the next Get reloads from the store.
// Must be called whenever questions are added to a dataset.
func (c *QuestionCache) Invalidate(ds string) {
	c.mu.Lock()
	delete(c.byDataset, ds)
	c.mu.Unlock()
}
