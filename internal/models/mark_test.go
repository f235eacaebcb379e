package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		grade  float64
		letter string
		points float64
	}{
		{100, "A", 4.0},
		{90, "A", 4.0},
		{89.5, "B", 3.0},
		{80, "B", 3.0},
		{70, "C", 2.0},
		{60, "D", 1.0},
		{59.9, "F", 0.0},
		{0, "F", 0.0},
	}
	for _, tc := range cases {
		letter, points := LetterGrade(tc.grade)
		assert.Equal(t, tc.letter, letter, "grade %v", tc.grade)
		assert.Equal(t, tc.points, points, "grade %v", tc.grade)
	}
}
