package dataloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID     int64
	Parent int64
	Name   string
}

func TestOrderByKeys(t *testing.T) {
	t.Parallel()
	keyFn := func(r row) int64 { return r.ID }

	t.Run("all keys found", func(t *testing.T) {
		t.Parallel()
		result, errs := OrderByKeys([]int64{1, 2, 3}, []row{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, keyFn)
		require.Len(t, result, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{result[0].Name, result[1].Name, result[2].Name})
		assert.Equal(t, []error{nil, nil, nil}, errs)
	})

	t.Run("some keys missing", func(t *testing.T) {
		t.Parallel()
		result, errs := OrderByKeys([]int64{1, 2, 3, 4}, []row{{ID: 1, Name: "a"}, {ID: 3, Name: "c"}}, keyFn)
		require.Len(t, result, 4)
		assert.Equal(t, "a", result[0].Name)
		assert.Zero(t, result[1])
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], ErrNotFound)
		assert.ErrorIs(t, errs[3], ErrNotFound)
	})

	t.Run("empty keys", func(t *testing.T) {
		t.Parallel()
		result, errs := OrderByKeys(nil, []row{{ID: 1}}, keyFn)
		assert.Empty(t, result)
		assert.Empty(t, errs)
	})
}

func TestFound(t *testing.T) {
	t.Parallel()
	got := Found([]int64{3, 9, 1}, []row{{ID: 1, Name: "a"}, {ID: 3, Name: "c"}}, func(r row) int64 { return r.ID })
	assert.Equal(t, []row{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}}, got)
	assert.Empty(t, Found([]int64{1}, nil, func(r row) int64 { return r.ID }))
}

func TestGroupByKey(t *testing.T) {
	t.Parallel()
	rows := []row{{ID: 1, Parent: 10}, {ID: 2, Parent: 20}, {ID: 3, Parent: 10}}
	groups := GroupByKey(rows, func(r row) int64 { return r.Parent })
	assert.Equal(t, map[int64][]row{
		10: {{ID: 1, Parent: 10}, {ID: 3, Parent: 10}},
		20: {{ID: 2, Parent: 20}},
	}, groups)
	assert.Empty(t, GroupByKey(nil, func(r row) int64 { return r.Parent }))
}

func TestOrderGroupsByKeys(t *testing.T) {
	t.Parallel()
	groups := map[int64][]row{10: {{ID: 1}}, 20: {{ID: 2}, {ID: 3}}}
	ordered := OrderGroupsByKeys([]int64{20, 30, 10}, groups)
	require.Len(t, ordered, 3)
	assert.Len(t, ordered[0], 2)
	assert.Nil(t, ordered[1])
	assert.Equal(t, []row{{ID: 1}}, ordered[2])
}

func TestUnique(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int64{3, 1, 2}, Unique([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, Unique[string](nil))
}

func TestChunk(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		keys []int
		size int
		want [][]int
	}{
		{"empty", nil, 2, nil},
		{"single batch", []int{1, 2}, 5, [][]int{{1, 2}}},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"unbounded", []int{1, 2, 3}, 0, [][]int{{1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.keys, tt.size))
		})
	}

	t.Run("batches do not alias", func(t *testing.T) {
		batches := Chunk([]int{1, 2, 3}, 2)
		batches[0] = append(batches[0], 9)
		assert.Equal(t, []int{3}, batches[1])
	})
}
