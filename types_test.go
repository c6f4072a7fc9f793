package conduit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestP(t *testing.T) {
	assert.Equal(t, Params{{"b", "2"}, {"a", "1"}}, P("b", "2", "a", "1"))
	assert.Equal(t, Params{{"a", "1"}}, P("a", "1", "dangling"))
	assert.Empty(t, P())
}

func TestParamsGetAndAdd(t *testing.T) {
	p := P("a", "1").Add("a", "2").Add("b", "3")

	v, ok := p.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = p.Get("missing")
	assert.False(t, ok)
	assert.Len(t, p, 3)
}

func TestParamsClone(t *testing.T) {
	var nilParams Params
	assert.Nil(t, nilParams.Clone())

	orig := P("a", "1")
	clone := orig.Clone()
	clone[0].Value = "changed"
	assert.Equal(t, "1", orig[0].Value)
}
