package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedInts(total int, calls *[]Params) func(context.Context, Params) ([]int, error) {
	return func(_ context.Context, params Params) ([]int, error) {
		*calls = append(*calls, params)
		var page []int
		for i := params.Offset; i < total && len(page) < params.Limit; i++ {
			page = append(page, i)
		}
		return page, nil
	}
}

func TestCollect_ReadsUntilShortPage(t *testing.T) {
	var calls []Params
	rows, err := Collect(context.Background(), Params{Sort: "-sampled_at"}, 10, pagedInts(25, &calls))
	require.NoError(t, err)
	assert.Len(t, rows, 25)
	assert.Equal(t, 24, rows[24])
	require.Len(t, calls, 3)
	assert.Equal(t, Params{Sort: "-sampled_at", Limit: 10, Offset: 20}, calls[2])
}

func TestCollect_ExactMultipleFetchesEmptyTail(t *testing.T) {
	var calls []Params
	rows, err := Collect(context.Background(), Params{}, 10, pagedInts(20, &calls))
	require.NoError(t, err)
	assert.Len(t, rows, 20)
	assert.Len(t, calls, 3)
}

func TestCollect_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Collect(context.Background(), Params{}, 10, func(context.Context, Params) ([]int, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls []Params
	_, err = Collect(ctx, Params{}, 10, pagedInts(5, &calls))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}
