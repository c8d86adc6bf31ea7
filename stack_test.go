package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_stackModel_pushAndPosition(t *testing.T) {
	s := newStackModel()
	require.NoError(t, s.push(0, 1))
	require.NoError(t, s.push(1, 2))
	require.NoError(t, s.push(2, 1))

	pos, err := s.getRelativePosition(2)
	require.NoError(t, err)
	require.Equal(t, 0, pos, "top of stack is distance 0")

	pos, err = s.getRelativePosition(1)
	require.NoError(t, err)
	require.Equal(t, 1, pos, "idx 1 sits one slot below the top")

	pos, err = s.getRelativePosition(0)
	require.NoError(t, err)
	require.Equal(t, 3, pos)

	require.Equal(t, 4, s.numLiveSlots())
}

func Test_stackModel_pull_removesEntirelyAndShiftsAbove(t *testing.T) {
	s := newStackModel()
	require.NoError(t, s.push(0, 2))
	require.NoError(t, s.push(1, 1))

	require.NoError(t, s.pull(0))
	require.Equal(t, 1, s.numLiveSlots())

	pos, err := s.getRelativePosition(1)
	require.NoError(t, err)
	require.Equal(t, 0, pos, "idx 1 moves to the top once idx 0 below it is pulled")

	_, err = s.getRelativePosition(0)
	require.Error(t, err)
}

func Test_stackModel_pull_ofTop_leavesLowerDistancesUnchanged(t *testing.T) {
	s := newStackModel()
	require.NoError(t, s.push(0, 1))
	require.NoError(t, s.push(1, 1))

	require.NoError(t, s.pull(1))

	pos, err := s.getRelativePosition(0)
	require.NoError(t, err)
	require.Equal(t, 0, pos)
	require.Equal(t, 1, s.numLiveSlots())
}

func Test_stackModel_errors(t *testing.T) {
	s := newStackModel()
	require.NoError(t, s.push(0, 1))
	require.Error(t, s.push(0, 1), "pushing an already-live idx is an error")

	_, err := s.getRelativePosition(5)
	require.Error(t, err)

	_, err = s.getLength(5)
	require.Error(t, err)

	require.Error(t, s.pull(5))
}
