package riak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/riak/pb"
)

func TestQuorum_ZeroValue(t *testing.T) {
	var q Quorum
	for p := range numQuorumParams {
		assert.Nil(t, q.get(p))
	}
	assert.True(t, q.basicQuorum())
}

func TestQuorum_Setters(t *testing.T) {
	base := Quorum{}.R(2)
	q := base.W(QuorumAll).PR(1).PW(QuorumOne).DW(QuorumMajority).RW(3).N(5).BasicQuorum(false)

	assert.Equal(t, pb.Uint32(2), q.get(paramR))
	assert.Equal(t, pb.Uint32(QuorumAll), q.get(paramW))
	assert.Equal(t, pb.Uint32(1), q.get(paramPR))
	assert.Equal(t, pb.Uint32(QuorumOne), q.get(paramPW))
	assert.Equal(t, pb.Uint32(QuorumMajority), q.get(paramDW))
	assert.Equal(t, pb.Uint32(3), q.get(paramRW))
	assert.Equal(t, pb.Uint32(5), q.get(paramN))
	assert.False(t, q.basicQuorum())

	// Setters return copies.
	assert.Nil(t, base.get(paramW))
	assert.True(t, base.basicQuorum())
}

func TestQuorum_ExplicitZero(t *testing.T) {
	q := Quorum{}.W(0)
	require.NotNil(t, q.get(paramW))
	assert.Equal(t, uint32(0), *q.get(paramW))
}

func TestQuorum_SymbolicValues(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFE), QuorumOne)
	assert.Equal(t, uint32(0xFFFFFFFD), QuorumMajority)
	assert.Equal(t, uint32(0xFFFFFFFC), QuorumAll)
	assert.Equal(t, uint32(0xFFFFFFFB), QuorumDefault)
}
