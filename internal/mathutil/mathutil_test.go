package mathutil

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{"inside", 5, 0, 10, 5},
		{"below", -3, 0, 10, 0},
		{"above", 42, 0, 10, 10},
		{"at lo", 0, 0, 10, 0},
		{"at hi", 10, 0, 10, 10},
		{"inverted range", 5, 7, 3, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		num, den int
		want     float64
	}{
		{0, 4, 0},
		{3, 4, 0.75},
		{4, 4, 1},
		{9, 4, 1},
		{-1, 4, 0},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := Fraction(tt.num, tt.den); got != tt.want {
			t.Errorf("Fraction(%d, %d) = %v, want %v", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestMipLevels(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{4, 4, 3},
		{256, 64, 9},
		{1024, 1024, 11},
		{3, 5, 3},
	}
	for _, tt := range tests {
		if got := MipLevels(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevels(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}
