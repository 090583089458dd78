package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineTopology(t *testing.T) {
	topology := NewLineTopology(DefaultLoopLineIDs())

	assert.True(t, topology.IsLoopLine(11302), "Yamanote line")
	assert.True(t, topology.IsLoopLine(11623), "Osaka loop line")
	assert.False(t, topology.IsLoopLine(11301))
	assert.False(t, topology.IsLoopLine(0))
}

func TestLineTopologyCustomList(t *testing.T) {
	topology := NewLineTopology([]int{42})

	assert.True(t, topology.IsLoopLine(42))
	assert.False(t, topology.IsLoopLine(11302), "defaults do not leak into a custom list")
}

func TestDefaultLoopLineIDsIsACopy(t *testing.T) {
	ids := DefaultLoopLineIDs()
	ids[0] = 1

	assert.Equal(t, []int{11302, 11623}, DefaultLoopLineIDs())
}

func TestStationServesLine(t *testing.T) {
	station := Station{
		GroupID: 1,
		Lines:   []Line{{ID: 5, Color: "#008000"}, {ID: 7, Color: "#ff0000"}},
	}

	assert.True(t, station.ServesLine(5))
	assert.True(t, station.ServesLine(7))
	assert.False(t, station.ServesLine(9))
	assert.False(t, Station{}.ServesLine(5))
}
