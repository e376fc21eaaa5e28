package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"honeydesk/internal/validate"
)

func TestPhoneDigitsOnly(t *testing.T) {
	for _, in := range []string{"abc123", "+251911234567", "0911 234 567", "091-123", ""} {
		_, ok := validate.Phone(in)
		assert.False(t, ok, in)
	}
	got, ok := validate.Phone(" 0911234567 ")
	assert.True(t, ok)
	assert.Equal(t, "0911234567", got)
}

func TestEmailSkip(t *testing.T) {
	got, ok := validate.Email("SKIP")
	assert.True(t, ok)
	assert.Empty(t, got)

	_, ok = validate.Email("no-at-sign")
	assert.False(t, ok)

	got, ok = validate.Email("a@b")
	assert.True(t, ok)
	assert.Equal(t, "a@b", got)
}

func TestMinimumLengths(t *testing.T) {
	_, ok := validate.Name("Al")
	assert.False(t, ok)
	_, ok = validate.Name("Abe")
	assert.True(t, ok)

	_, ok = validate.Message("ok")
	assert.False(t, ok)
	_, ok = validate.Message("fine")
	assert.True(t, ok)

	_, ok = validate.Address("Main")
	assert.False(t, ok)
}

func TestQuantityAndOptions(t *testing.T) {
	_, ok := validate.Qty("0")
	assert.False(t, ok)
	n, ok := validate.Qty("3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	opt, ok := validate.Option("1KG", []string{"500g", "1kg"})
	assert.True(t, ok)
	assert.Equal(t, "1kg", opt)
	_, ok = validate.Option("2kg", []string{"500g", "1kg"})
	assert.False(t, ok)
}

func TestPriceAndStock(t *testing.T) {
	p, ok := validate.Price("12.5")
	assert.True(t, ok)
	assert.Equal(t, "12.5", p.String())

	_, ok = validate.Price("-1")
	assert.False(t, ok)
	_, ok = validate.Price("ten")
	assert.False(t, ok)
	_, ok = validate.Price("12.499")
	assert.False(t, ok)
	p, ok = validate.Price("12.500")
	assert.True(t, ok)
	assert.True(t, p.Equal(decimal.RequireFromString("12.5")))

	_, ok = validate.Stock("-2")
	assert.False(t, ok)
	n, ok := validate.Stock("0")
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}

func TestExtension(t *testing.T) {
	ext, ok := validate.Extension("photo.JPG")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, ok = validate.Extension("setup.exe")
	assert.False(t, ok)
	_, ok = validate.Extension("README")
	assert.False(t, ok)
}

func TestQuantitiesList(t *testing.T) {
	got, ok := validate.Quantities(" 250g, 500g ,,1kg ")
	assert.True(t, ok)
	assert.Equal(t, "250g,500g,1kg", got)

	got, ok = validate.Quantities("None")
	assert.True(t, ok)
	assert.Empty(t, got)
}
