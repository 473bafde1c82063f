package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/acadboard/acadboard/core/course"
)

type courseRepository struct {
	db *courseTable
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		crs := *repo.db.table[id]
		crs.LecturerIDs = copyStrings(crs.LecturerIDs)
		courses = append(courses, crs)
	}
	return courses
}

func (repo *courseRepository) CheckCodeUniqueness(_ context.Context, code string, excluded ...course.Course) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, crs := range repo.query() {
		if crs.Code != code {
			continue
		}
		var skip bool
		for _, ex := range excluded {
			if ex.ID == crs.ID {
				skip = true
				break
			}
		}
		if !skip {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	crs.LecturerIDs = copyStrings(crs.LecturerIDs)
	stored := crs
	stored.LecturerIDs = copyStrings(crs.LecturerIDs)
	repo.db.table[crs.ID] = &stored
	repo.db.order = append(repo.db.order, crs.ID)
	return crs, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := repo.query()
	if filter == nil {
		return courses, nil
	}
	search := strings.ToLower(filter.Search)
	res := make([]course.Course, 0, len(courses))
	for _, crs := range courses {
		if search != "" &&
			!strings.Contains(strings.ToLower(crs.Title), search) &&
			!strings.Contains(strings.ToLower(crs.Code), search) {
			continue
		}
		if filter.DepartmentID != "" && crs.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.LecturerID != "" && !crs.TaughtBy(filter.LecturerID) {
			continue
		}
		res = append(res, crs)
	}
	return res, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if crs, ok := repo.db.table[filter.ID]; ok {
			res := *crs
			res.LecturerIDs = copyStrings(crs.LecturerIDs)
			return res, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	if filter.Code != "" {
		for _, crs := range repo.query() {
			if crs.Code == filter.Code {
				return crs, nil
			}
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	crs.CreatedAt = orig.CreatedAt
	crs.LecturerIDs = copyStrings(crs.LecturerIDs)
	stored := crs
	stored.LecturerIDs = copyStrings(crs.LecturerIDs)
	repo.db.table[crs.ID] = &stored
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return nil
}
