package strx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "a", Coalesce("a", "b"))
	assert.Equal(t, "b", Coalesce("", "b"))
}

func TestSplitInto(t *testing.T) {
	var buf [4]string
	assert.Equal(t, []string{"a", "", "c"}, SplitInto(buf[:], "a,,c", ','))
	assert.Equal(t, []string{""}, SplitInto(buf[:], "", ','))
	assert.Equal(t, []string{"a", "b", "c", ""}, SplitInto(buf[:], "a,b,c,", ','))
	assert.Nil(t, SplitInto(buf[:], "a,b,c,d,e", ','))
}

func TestTrimEOL(t *testing.T) {
	assert.Equal(t, "status", TrimEOL("status\r\n"))
	assert.Equal(t, "status", TrimEOL("status"))
	assert.Equal(t, "", TrimEOL("\r\n\n"))
}
