package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)

	mean, std = CalculateMeanStd([]float64{3})
	assert.Equal(t, 3.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = CalculateMeanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestCalculateMedian(t *testing.T) {
	assert.Equal(t, 3.0, CalculateMedian([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, CalculateMedian([]float64{4, 1, 3, 2}))
	assert.Equal(t, 0.0, CalculateMedian(nil))

	data := []float64{3, 1, 2}
	CalculateMedian(data)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestCalculateMeanOptional(t *testing.T) {
	assert.Nil(t, CalculateMeanOptional(nil))
	got := CalculateMeanOptional([]float64{1, 2})
	if assert.NotNil(t, got) {
		assert.Equal(t, 1.5, *got)
	}
}

func TestCalculateMin(t *testing.T) {
	assert.Equal(t, -7.0, CalculateMin([]float64{-1, -7, 3}))
	assert.Equal(t, 0.0, CalculateMin(nil))
}

func TestCalculateChangePercent(t *testing.T) {
	assert.InDelta(t, -2.0, CalculateChangePercent(98, 100), 1e-12)
	assert.Equal(t, 0.0, CalculateChangePercent(5, 0))
}
