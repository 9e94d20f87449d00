package model

import (
	"math"
	"testing"
	"time"

	"product-api/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func assertValidation(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, msg, appErr.Message)
}

func TestDecodeProductInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"empty body", ``, MsgNameRequired},
		{"missing name", `{"price":1}`, MsgNameRequired},
		{"blank name", `{"name":"   ","price":1}`, MsgNameRequired},
		{"numeric name", `{"name":42,"price":1}`, MsgNameRequired},
		{"null name", `{"name":null,"price":1}`, MsgNameRequired},
		{"missing price", `{"name":"Pen"}`, MsgPriceRequired},
		{"string price", `{"name":"Pen","price":"1.5"}`, MsgPriceRequired},
		{"name checked before price", `{"price":"x"}`, MsgNameRequired},
		{"array body", `[1,2]`, MsgNotAnObject},
		{"malformed", `{"name":`, MsgMalformedBody},
		{"null body", `null`, MsgNotAnObject},
		{"bad optional field", `{"name":"Pen","price":1,"inStock":"yes"}`, "Invalid value for field inStock"},
		{"bad price reported before bad optional field", `{"name":"a","inStock":"yes","price":"x"}`, MsgPriceRequired},
		{"bad name reported before bad price", `{"name":7,"inStock":"yes","price":"x"}`, MsgNameRequired},
		{"first bad optional field wins", `{"name":"Pen","price":1,"inStock":"yes","category":3}`, "Invalid value for field category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeProductInput([]byte(tc.body))
			assertValidation(t, err, tc.msg)
		})
	}
}

func TestDecodeProductInput_Valid(t *testing.T) {
	in, err := DecodeProductInput([]byte(`{"name":"Pen","price":0,"category":"Office","inStock":false}`))
	require.NoError(t, err)

	assert.Equal(t, "Pen", *in.Name)
	assert.Equal(t, 0.0, *in.Price)
	assert.Equal(t, "Office", *in.Category)
	assert.False(t, *in.InStock)
	assert.Nil(t, in.Description)
}

func TestValidate_RejectsNonFinitePrice(t *testing.T) {
	in := &ProductInput{Name: strPtr("Pen"), Price: floatPtr(math.NaN())}
	assertValidation(t, in.Validate(), MsgPriceRequired)

	in.Price = floatPtr(math.Inf(1))
	assertValidation(t, in.Validate(), MsgPriceRequired)
}

func TestNewProduct_Defaults(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 3600))

	p := NewProduct(&ProductInput{Name: strPtr("Pen"), Price: floatPtr(1.5)}, now)

	assert.True(t, p.ID.IsZero())
	assert.Equal(t, "Pen", p.Name)
	assert.Equal(t, 1.5, p.Price)
	assert.True(t, p.InStock)
	assert.Empty(t, p.Category)
	assert.Equal(t, time.Date(2024, 5, 6, 6, 8, 9, 123000000, time.UTC), p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), TotalPages(0, 10))
	assert.Equal(t, int64(1), TotalPages(10, 10))
	assert.Equal(t, int64(2), TotalPages(11, 10))
	assert.Equal(t, int64(7), TotalPages(7, 1))
	assert.Equal(t, int64(1), TotalPages(2, math.MaxInt64))
	assert.Equal(t, int64(1), TotalPages(math.MaxInt64, math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), TotalPages(math.MaxInt64, 1))
}
