package contour

import (
	"math"
	"testing"
)

func unitSquare() Contour {
	return Contour{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

func TestContour_Measurements(t *testing.T) {
	c := unitSquare()

	if got := c.SignedArea(); got != 1 {
		t.Errorf("SignedArea: got %f, want 1", got)
	}
	if got := c.Reversed().SignedArea(); got != -1 {
		t.Errorf("reversed SignedArea: got %f, want -1", got)
	}
	if got := c.Perimeter(); got != 4 {
		t.Errorf("Perimeter: got %f, want 4", got)
	}
	if got := c.Centroid(); got != (Point{0.5, 0.5}) {
		t.Errorf("Centroid: got %v, want {0.5 0.5}", got)
	}
	if got := c.Distinct(); got != 4 {
		t.Errorf("Distinct: got %d, want 4", got)
	}
}

func TestContour_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		c    Contour
	}{
		{"empty", nil},
		{"one point", Contour{{1, 1}}},
		{"two points", Contour{{0, 0}, {3, 4}}},
		{"collinear", Contour{{0, 0}, {1, 1}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Area(); got != 0 {
				t.Errorf("Area: got %f, want 0", got)
			}
		})
	}
}

func TestContour_Reversed(t *testing.T) {
	got := unitSquare().Reversed()
	want := Contour{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Reversed[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestContour_Transform(t *testing.T) {
	c := unitSquare().Transform(2, math.Pi/2, 10, 0)

	want := Contour{{10, 0}, {10, 2}, {8, 2}, {8, 0}}
	for i := range want {
		if math.Abs(c[i].X-want[i].X) > 1e-9 || math.Abs(c[i].Y-want[i].Y) > 1e-9 {
			t.Errorf("Transform[%d]: got %v, want %v", i, c[i], want[i])
		}
	}
	if got := c.Area(); math.Abs(got-4) > 1e-9 {
		t.Errorf("scaled area: got %f, want 4", got)
	}
}
