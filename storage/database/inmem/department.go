package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/acadboard/acadboard/core/department"
)

type departmentRepository struct {
	db *departmentTable
}

func NewDepartmentRepository(db *DB) department.Repository {
	return &departmentRepository{db: db.department}
}

func (repo *departmentRepository) query() []department.Department {
	depts := make([]department.Department, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		depts = append(depts, *repo.db.table[id])
	}
	return depts
}

func (repo *departmentRepository) CheckCodeUniqueness(_ context.Context, code string, excluded ...department.Department) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, dept := range repo.query() {
		if dept.Code != code {
			continue
		}
		var skip bool
		for _, ex := range excluded {
			if ex.ID == dept.ID {
				skip = true
				break
			}
		}
		if !skip {
			return department.ErrCodeExists
		}
	}
	return nil
}

func (repo *departmentRepository) CreateDepartment(_ context.Context, dept department.Department) (department.Department, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	dept.ID = uuid.New().String()
	stored := dept
	repo.db.table[dept.ID] = &stored
	repo.db.order = append(repo.db.order, dept.ID)
	return dept, nil
}

func (repo *departmentRepository) QueryDepartments(_ context.Context, search string) ([]department.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	depts := repo.query()
	if search == "" {
		return depts, nil
	}
	search = strings.ToLower(search)
	res := make([]department.Department, 0, len(depts))
	for _, dept := range depts {
		if strings.Contains(strings.ToLower(dept.Name), search) || strings.Contains(strings.ToLower(dept.Code), search) {
			res = append(res, dept)
		}
	}
	return res, nil
}

func (repo *departmentRepository) GetDepartment(_ context.Context, id string) (department.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if dept, ok := repo.db.table[id]; ok {
		return *dept, nil
	}
	return department.Department{}, department.ErrNotFound
}

func (repo *departmentRepository) UpdateDepartment(_ context.Context, dept department.Department) (department.Department, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[dept.ID]
	if !ok {
		return department.Department{}, department.ErrNotFound
	}
	dept.CreatedAt = orig.CreatedAt
	stored := dept
	repo.db.table[dept.ID] = &stored
	return dept, nil
}

func (repo *departmentRepository) DeleteDepartment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return department.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return nil
}
