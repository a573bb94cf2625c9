package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/subledger/clock"
)

func TestManual(t *testing.T) {
	c := clock.NewManual(1_700_000_000)
	assert.Equal(t, int64(1_700_000_000), c.Now())

	c.Advance(86_400)
	assert.Equal(t, int64(1_700_086_400), c.Now())

	c.Set(5)
	assert.Equal(t, int64(5), c.Now())
}

func TestSystem(t *testing.T) {
	before := time.Now().Unix()
	got := clock.System{}.Now()
	assert.GreaterOrEqual(t, got, before)
}
