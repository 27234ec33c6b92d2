package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, 42, ParseValue(" 42 "))
	assert.Equal(t, 1.5, ParseValue("1.5"))
	assert.Equal(t, "Clark St", ParseValue("Clark St"))
	assert.Equal(t, "", ParseValue(""))
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, 3.0, Numeric(3))
	assert.Equal(t, 3.0, Numeric(int64(3)))
	assert.Equal(t, 2.5, Numeric("2.5"))
	assert.Equal(t, 7.0, Numeric(uint8(7)))
	assert.Equal(t, 0.0, Numeric(nil))
}

func TestInteger(t *testing.T) {
	assert.Equal(t, int64(2019), Integer("2019"))
	assert.Equal(t, int64(2019), Integer(2019.0))
	assert.Equal(t, int64(12), Integer(int64(12)))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "12", Text(int64(12)))
	assert.Equal(t, "0.25", Text(0.25))
	assert.Equal(t, "Male", Text("Male"))
}
