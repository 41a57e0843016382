package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFloatOrZero(t *testing.T) {
	assert.InDelta(t, 1234.56, ParseFloatOrZero("1234.56"), 0.001)
	assert.Zero(t, ParseFloatOrZero(""))
	assert.Zero(t, ParseFloatOrZero("not-a-number"))
}

func TestParseIntOrZero(t *testing.T) {
	assert.Equal(t, int64(42), ParseIntOrZero("42"))
	assert.Zero(t, ParseIntOrZero(""))
	assert.Zero(t, ParseIntOrZero("12.5"))
}

func TestRoundWithTwoDecimalPlace(t *testing.T) {
	assert.InDelta(t, 10.57, RoundWithTwoDecimalPlace(10.567), 0.0001)
	assert.Zero(t, RoundWithTwoDecimalPlace(0))
}
