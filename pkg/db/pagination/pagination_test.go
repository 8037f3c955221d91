package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
}

func TestCursorRoundTripThroughPageInfo(t *testing.T) {
	rows := []int64{9, 8, 7, 6}

	page, info := BuildCursorPageInfo(rows, 3, func(id int64) int64 { return id })
	assert.Equal(t, []int64{9, 8, 7}, page)
	require.True(t, info.HasMore)

	before, err := Pagination{PageToken: info.NextPageToken}.BeforeID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), before)
}

func TestLastPageHasNoToken(t *testing.T) {
	page, info := BuildCursorPageInfo([]int64{2, 1}, 3, func(id int64) int64 { return id })
	assert.Len(t, page, 2)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!!")
	assert.Error(t, err)

	_, err = Pagination{PageToken: "e30"}.BeforeID() // {}
	assert.Error(t, err)
}
