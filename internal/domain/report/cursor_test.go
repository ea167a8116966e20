package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_FitsBoundary(t *testing.T) {
	// A4: P = 297, M = 14, MaxY = 283
	c := NewCursor(210, 297, 14, 270, nil)

	assert.True(t, c.Fits(13), "Y + H == P - M fits")
	assert.False(t, c.Fits(13.01))
}

func TestCursor_EnsureStartsPageOnlyWhenNeeded(t *testing.T) {
	pages := 0
	c := NewCursor(210, 297, 14, 270, func() { pages++ })

	assert.False(t, c.Ensure(13))
	assert.Equal(t, 0, pages)
	assert.Equal(t, 270.0, c.Y)

	assert.True(t, c.Ensure(14))
	assert.Equal(t, 1, pages)
	assert.Equal(t, 14.0, c.Y)
}

func TestCursor_ContentWidth(t *testing.T) {
	c := NewCursor(210, 297, 14, 18, nil)
	assert.Equal(t, 182.0, c.ContentWidth())
	assert.Equal(t, 283.0, c.MaxY)
}
