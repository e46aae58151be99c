package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIsSortable(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := NewAt(base)
	second := NewAt(base.Add(time.Millisecond))
	third := NewAt(base.Add(time.Millisecond))

	assert.Len(t, first, 26)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}
