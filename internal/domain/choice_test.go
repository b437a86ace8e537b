package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoice(t *testing.T) {
	var zero Choice[Mkei]
	assert.False(t, zero.IsSelected())
	assert.Equal(t, Unselected[Mkei](), zero)

	c := Selected(Mkei{ID: 4, Code: "796"})
	v, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, int64(4), v.ID)

	assert.False(t, SelectedPtr[Mkei](nil).IsSelected())
	assert.True(t, SelectedPtr(&Mkei{ID: 1}).IsSelected())

	// Choices of comparable types compare by value.
	assert.True(t, Selected(Mkei{ID: 4, Code: "796"}) == c)
}

func TestAgskChoice(t *testing.T) {
	assert.False(t, NoAgsk().Satisfied())
	assert.Nil(t, NoAgsk().WireCode())

	pl := PriceListAgsk()
	assert.True(t, pl.Satisfied())
	assert.True(t, pl.IsPriceList())
	assert.Nil(t, pl.WireCode(), "price list is sent as null")

	code := AgskCode(Agsk{ID: 9, Code: "A-101"})
	assert.True(t, code.Satisfied())
	assert.Equal(t, "A-101", *code.WireCode())
	_, ok := pl.Code()
	assert.False(t, ok)
}
