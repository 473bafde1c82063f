package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/user"
)

var userOrderings = []string{"name", "username", "email", "matric_number", "is_active", "created_at"}

type userRepository struct {
	db *userTable
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// query returns copies of the stored users in insertion order. The caller must hold the lock.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		usr := *repo.db.table[id]
		usr.Roles = copyStrings(usr.Roles)
		users = append(users, usr)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(
	_ context.Context,
	username, email, matricNumber string,
	excludedUsers ...user.User,
) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}

	for _, usr := range repo.query() {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if matricNumber != "" && usr.MatricNumber == matricNumber {
			return user.ErrMatricNumberExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	usr.Roles = copyStrings(usr.Roles)
	stored := usr
	repo.db.table[usr.ID] = &stored
	repo.db.order = append(repo.db.order, usr.ID)
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := repo.query()
	if filter != nil && !filter.IsEmpty() {
		res := make([]user.User, 0, len(users))
		for _, usr := range users {
			if matchUser(usr, filter) {
				res = append(res, usr)
			}
		}
		users = res
	}

	if ords := core.AllowedOrderings(ordering, userOrderings...); len(ords) > 0 {
		sort.SliceStable(users, func(i, j int) bool {
			for _, ord := range ords {
				c := compareUsers(users[i], users[j], ord.Field)
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	return users, nil
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(usr.Username, search) &&
			!strings.Contains(usr.Email, search) &&
			!strings.Contains(strings.ToLower(usr.MatricNumber), search) {
			return false
		}
	}
	if filter.Roles != nil {
		var hasRole bool
		for _, role := range filter.Roles {
			if usr.HasRole(role) {
				hasRole = true
				break
			}
		}
		if !hasRole {
			return false
		}
	}
	if filter.DepartmentID != "" && usr.DepartmentID != filter.DepartmentID {
		return false
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "matric_number":
		return strings.Compare(a.MatricNumber, b.MatricNumber)
	case "is_active":
		switch {
		case a.IsActive == b.IsActive:
			return 0
		case a.IsActive:
			return 1
		default:
			return -1
		}
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			res := *usr
			res.Roles = copyStrings(usr.Roles)
			return res, nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.query() {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		case filter.MatricNumber != "":
			if usr.MatricNumber == filter.MatricNumber {
				return usr, nil
			}
		default:
			return user.User{}, user.ErrNotFound
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.CreatedAt = orig.CreatedAt
	usr.Roles = copyStrings(usr.Roles)
	stored := usr
	repo.db.table[usr.ID] = &stored
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		if _, ok := repo.db.table[id]; !ok {
			continue
		}
		delete(repo.db.table, id)
		repo.db.order = removeID(repo.db.order, id)
	}
	return nil
}
