package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/acadboard/acadboard/core/feedback"
)

type feedbackRepository struct {
	db *feedbackTable
}

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) SaveFeedback(_ context.Context, fb feedback.Feedback) (feedback.Feedback, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := fb.Key()
	if id, ok := repo.db.keys[key]; ok {
		orig := repo.db.table[id]
		fb.ID = orig.ID
		fb.CreatedAt = orig.CreatedAt
		stored := fb
		repo.db.table[id] = &stored
		return fb, false, nil
	}

	fb.ID = uuid.New().String()
	stored := fb
	repo.db.table[fb.ID] = &stored
	repo.db.keys[key] = fb.ID
	repo.db.order = append(repo.db.order, fb.ID)
	return fb, true, nil
}

// QueryFeedback walks the table backwards: most recent first.
func (repo *feedbackRepository) QueryFeedback(_ context.Context, filter *feedback.QueryFilter) ([]feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]feedback.Feedback, 0, len(repo.db.order))
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		if fb := repo.db.table[repo.db.order[i]]; filter.Match(*fb) {
			list = append(list, *fb)
		}
	}
	return list, nil
}

func (repo *feedbackRepository) GetFeedback(_ context.Context, id string) (feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if fb, ok := repo.db.table[id]; ok {
		return *fb, nil
	}
	return feedback.Feedback{}, feedback.ErrNotFound
}

func (repo *feedbackRepository) DeleteFeedback(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	fb, ok := repo.db.table[id]
	if !ok {
		return feedback.ErrNotFound
	}
	delete(repo.db.keys, fb.Key())
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return nil
}
