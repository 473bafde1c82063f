package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/acadboard/acadboard/core/result"
)

type resultRepository struct {
	db *resultTable
}

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.result}
}

func (repo *resultRepository) SaveResult(_ context.Context, res result.Result) (result.Result, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := res.Key()
	if id, ok := repo.db.keys[key]; ok {
		orig := repo.db.table[id]
		res.ID = orig.ID
		res.CreatedAt = orig.CreatedAt
		stored := res
		repo.db.table[id] = &stored
		return res, false, nil
	}

	res.ID = uuid.New().String()
	stored := res
	repo.db.table[res.ID] = &stored
	repo.db.keys[key] = res.ID
	repo.db.order = append(repo.db.order, res.ID)
	return res, true, nil
}

func (repo *resultRepository) QueryResults(_ context.Context, filter *result.QueryFilter) ([]result.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	results := make([]result.Result, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		if res := repo.db.table[id]; filter.Match(*res) {
			results = append(results, *res)
		}
	}
	return results, nil
}

func (repo *resultRepository) GetResult(_ context.Context, id string) (result.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if res, ok := repo.db.table[id]; ok {
		return *res, nil
	}
	return result.Result{}, result.ErrNotFound
}

func (repo *resultRepository) DeleteResult(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	res, ok := repo.db.table[id]
	if !ok {
		return result.ErrNotFound
	}
	delete(repo.db.keys, res.Key())
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return nil
}
