package pipeline

import (
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/search-template/internal/model"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Write(name string, points []model.Point) ([]string, error) {
	args := m.Called(name, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockWriter) WritePages(prefix string, pages [][]model.Point, numbered bool) ([]string, error) {
	args := m.Called(prefix, pages, numbered)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// idsEqual matches a point slice by its ids in order.
func idsEqual(ids ...string) interface{} {
	return mock.MatchedBy(func(points []model.Point) bool {
		got := model.IDs(points)
		if len(got) != len(ids) {
			return false
		}
		for i := range ids {
			if got[i] != ids[i] {
				return false
			}
		}
		return true
	})
}
