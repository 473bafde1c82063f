package inmemdb

import (
	"sync"

	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

// DB holds the mock collections. Every table remembers insertion order.
type (
	DB struct {
		user       *userTable
		department *departmentTable
		course     *courseTable
		result     *resultTable
		feedback   *feedbackTable
	}

	userTable struct {
		table map[string]*user.User
		order []string
		mutex sync.RWMutex
	}

	departmentTable struct {
		table map[string]*department.Department
		order []string
		mutex sync.RWMutex
	}

	courseTable struct {
		table map[string]*course.Course
		order []string
		mutex sync.RWMutex
	}

	resultTable struct {
		table map[string]*result.Result
		keys  map[result.Key]string
		order []string
		mutex sync.RWMutex
	}

	feedbackTable struct {
		table map[string]*feedback.Feedback
		keys  map[feedback.Key]string
		order []string
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		department: &departmentTable{table: make(map[string]*department.Department)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		result: &resultTable{
			table: make(map[string]*result.Result),
			keys:  make(map[result.Key]string),
		},
		feedback: &feedbackTable{
			table: make(map[string]*feedback.Feedback),
			keys:  make(map[feedback.Key]string),
		},
	}
}

// removeID drops id from order, keeping the order of the remaining ids.
func removeID(order []string, id string) []string {
	for i, oid := range order {
		if oid == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	res := make([]string, len(s))
	copy(res, s)
	return res
}
