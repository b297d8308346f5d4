package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSlice_GetIndex(t *testing.T) {
	tests := []struct {
		name        string
		partyIDs    IDSlice
		requestedID ID
		want        int
	}{
		{"empty", IDSlice{}, 1, -1},
		{"first", IDSlice{1, 2, 3}, 1, 0},
		{"last", IDSlice{1, 2, 3}, 3, 2},
		{"missing", IDSlice{1, 2, 4}, 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.partyIDs.GetIndex(tt.requestedID))
		})
	}
}

func TestIDSlice_Valid(t *testing.T) {
	assert.True(t, IDSlice{1, 2, 5}.Valid())
	assert.False(t, IDSlice{0, 1}.Valid(), "0 is reserved")
	assert.False(t, IDSlice{1, 1}.Valid(), "duplicates")
	assert.False(t, IDSlice{2, 1}.Valid(), "unsorted")
	assert.True(t, NewIDSlice([]ID{3, 1, 2}).Valid())
}

func TestIDSlice_Without(t *testing.T) {
	ids := IDSlice{1, 2, 3, 4, 5}
	assert.Equal(t, IDSlice{1, 3, 5}, ids.Without(4, 2))
	assert.Equal(t, IDSlice{1, 2, 4, 5}, ids.Remove(3))
	assert.Equal(t, IDSlice{1, 2, 3, 4, 5}, ids, "receiver must not be modified")
	assert.True(t, ids.Contains(1, 5))
	assert.False(t, ids.Contains(1, 6))
}
