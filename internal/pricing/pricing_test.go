package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteDefaultChildPrice(t *testing.T) {
	q := Quote(100000, nil, 2, 1, "IDR")

	assert.Equal(t, int64(100000), q.AdultPrice)
	assert.Equal(t, int64(70000), q.ChildPrice)
	assert.Equal(t, int64(200000), q.AdultTotal)
	assert.Equal(t, int64(70000), q.ChildTotal)
	assert.Equal(t, int64(270000), q.Subtotal)
	assert.Equal(t, int64(13500), q.ServiceFee)
	assert.Equal(t, int64(283500), q.Total)
	assert.Equal(t, "IDR", q.Currency)
}

func TestQuoteExplicitChildPrice(t *testing.T) {
	child := int64(55000)
	q := Quote(100000, &child, 1, 2, "IDR")

	assert.Equal(t, int64(55000), q.ChildPrice)
	assert.Equal(t, int64(110000), q.ChildTotal)
	assert.Equal(t, int64(210000), q.Subtotal)
	assert.Equal(t, int64(10500), q.ServiceFee)
	assert.Equal(t, int64(220500), q.Total)
}

func TestQuoteTotalAlwaysSubtotalPlusFee(t *testing.T) {
	cases := []struct {
		adultPrice int64
		adults     int
		children   int
	}{
		{1, 1, 0},
		{99999, 1, 1},
		{123457, 3, 2},
		{755000, 10, 0},
	}

	for _, tc := range cases {
		q := Quote(tc.adultPrice, nil, tc.adults, tc.children, "IDR")
		assert.Equal(t, q.Subtotal+q.ServiceFee, q.Total)
		assert.Equal(t, q.AdultTotal+q.ChildTotal, q.Subtotal)
	}
}

func TestChildPriceRoundsHalfUp(t *testing.T) {
	// 15 * 0.7 = 10.5 rounds up to 11
	assert.Equal(t, int64(11), ChildPrice(15, nil))
	// 11 * 0.7 = 7.7 rounds to 8
	assert.Equal(t, int64(8), ChildPrice(11, nil))
	// 10 * 0.7 = 7 exactly
	assert.Equal(t, int64(7), ChildPrice(10, nil))
}

func TestQuoteNoChildren(t *testing.T) {
	q := Quote(250000, nil, 4, 0, "IDR")
	assert.Equal(t, int64(0), q.ChildTotal)
	assert.Equal(t, int64(1000000), q.Subtotal)
	assert.Equal(t, int64(50000), q.ServiceFee)
	assert.Equal(t, int64(1050000), q.Total)
}

func TestQuoteDeterministic(t *testing.T) {
	first := Quote(123456, nil, 2, 3, "IDR")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Quote(123456, nil, 2, 3, "IDR"))
	}
}
