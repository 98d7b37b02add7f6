package profile

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNumeric(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{"42", true},
		{"-3.5", true},
		{"1,234", true},
		{"$1,234.50", true},
		{"€12", true},
		{"£ 7", true},
		{"1e3", true},
		{"abc", false},
		{"", false},
		{"$", false},
		{"Inf", false},
		{"NaN", false},
		{"12abc", false},
		{"$$5", false},
		{nil, false},
		{true, false},
		{3.5, true},
		{7, true},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsNumeric(c.in), "IsNumeric(%#v)", c.in)
	}
}

func TestIsDate(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{"2024-01-15", true},
		{"2024/01/15", true},
		{"01/15/2024", true},
		{"15/01/2024", true},
		{"Jan 2, 2024", true},
		{"2024/1/5", true},
		{"2024-1-5", true},
		{"Jan 5 2024", true},
		{"January 2024", true},
		{"Sales 2024", false},
		{"2024-01-15T10:30:00Z", true},
		{"2024-01-15 10:30", true},
		{"1850-01-01", false},
		{"2150-06-01", false},
		{"2024", false},
		{"20240115", false},
		{"123456.75", false},
		{"hello world", false},
		{"", false},
		{nil, false},
		{time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(1800, 5, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsDate(c.in), "IsDate(%#v)", c.in)
	}
}

func TestIsBooleanLiteral(t *testing.T) {
	assert.True(t, IsBooleanLiteral("TRUE"))
	assert.True(t, IsBooleanLiteral("false"))
	assert.True(t, IsBooleanLiteral(true))
	assert.False(t, IsBooleanLiteral("yes"))
	assert.False(t, IsBooleanLiteral("1"))
	assert.False(t, IsBooleanLiteral(nil))
}

func TestInferTypeThreshold(t *testing.T) {
	assert.Equal(t, TypeString, inferType(0, 0, 0, 0, 0.8))
	assert.Equal(t, TypeNumber, inferType(100, 81, 0, 0, 0.8))
	assert.Equal(t, TypeString, inferType(100, 80, 0, 0, 0.8), "threshold is strict")
	assert.Equal(t, TypeDate, inferType(10, 0, 9, 0, 0.8))
	assert.Equal(t, TypeBoolean, inferType(10, 0, 0, 10, 0.8))
	// numeric wins over date when both qualify
	assert.Equal(t, TypeNumber, inferType(10, 9, 9, 0, 0.8))
}
