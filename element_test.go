package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ElementType_Width(t *testing.T) {
	for _, tc := range []struct {
		name string
		et   ElementType
		want int
	}{
		{"num", Num(), 1},
		{"str", Str(), 1},
		{"many_num_3", ManyNum(3), 3},
		{"many_str_0", ManyStr(0), 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.et.Width())
		})
	}
}

func Test_Element_MatchesType(t *testing.T) {
	require.True(t, NewNum(3).MatchesType(Num()))
	require.False(t, NewNum(3).MatchesType(Str()))
	require.True(t, NewManyNum([]int{1, 2}).MatchesType(ManyNum(2)))
	require.False(t, NewManyNum([]int{1, 2}).MatchesType(ManyNum(3)))
}

func Test_Element_TypedAccessors(t *testing.T) {
	el := NewManyStr([]string{"a", "b"})
	_, ok := el.Str()
	require.False(t, ok)
	vs, ok := el.ManyStr()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, vs)
}
