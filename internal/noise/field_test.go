package noise

import (
	"math"
	"testing"
)

const tolerance = 1e-12

func TestEvaluate_LatticePoints(t *testing.T) {
	tables := map[string]*Table{
		"default": NewTable(),
		"seed1":   NewSeededTable(1),
		"seed-9":  NewSeededTable(-9),
	}
	points := [][2]float64{{0, 0}, {3, 5}, {1, 1}, {-4, 7}, {255, 256}, {1000, -1000}}

	for name, tbl := range tables {
		for _, p := range points {
			got := Evaluate(p[0], p[1], tbl)
			if math.Abs(got-0.5) > 1e-9 {
				t.Errorf("%s: Evaluate(%v, %v) = %v, want 0.5", name, p[0], p[1], got)
			}
		}
	}
}

func TestEvaluate_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		seed int64
		ok   bool
		x, y float64
		want float64
	}{
		{"default interior", 0, false, 0.37, 0.81, 0.5978566705519086},
		{"default half cell", 0, false, 1.5, 2.25, 0.564697265625},
		{"default negative", 0, false, -3.7, -0.2, 0.3643090342400002},
		{"default far", 0, false, 10.1, 7.9, 0.40085600000000066},
		{"seed1 interior", 1, true, 0.37, 0.81, 0.340354530796682},
		{"seed1 negative", 1, true, -3.7, -0.2, 0.6356909657599998},
		{"seed2 interior", 2, true, 0.37, 0.81, 0.24779302548381976},
		{"seed2 far", 2, true, 10.1, 7.9, 0.5084207801600003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.x, tt.y, TableFor(tt.seed, tt.ok))
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("Evaluate(%v, %v) = %.17g, want %.17g", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	a := NewSeededTable(77)
	b := NewSeededTable(77)
	for i := 0; i < 200; i++ {
		x := float64(i) * 0.173
		y := float64(i) * 0.291
		if Evaluate(x, y, a) != Evaluate(x, y, b) {
			t.Fatalf("Evaluate(%v, %v) differs between identical tables", x, y)
		}
		if Evaluate(x, y, a) != Evaluate(x, y, a) {
			t.Fatalf("Evaluate(%v, %v) not repeatable", x, y)
		}
	}
}

func TestEvaluate_Range(t *testing.T) {
	tbl := NewTable()
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i := 0; i <= 500; i++ {
		for j := 0; j <= 500; j++ {
			v := Evaluate(float64(i)/10, float64(j)/10, tbl)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	if minV < -0.05 || maxV > 1.05 {
		t.Fatalf("values outside [-0.05, 1.05]: min=%v max=%v", minV, maxV)
	}
	if maxV-minV < 0.5 {
		t.Fatalf("suspiciously flat field: min=%v max=%v", minV, maxV)
	}
}

func TestEvaluate_SeedSensitivity(t *testing.T) {
	a := Evaluate(0.37, 0.81, NewSeededTable(1))
	b := Evaluate(0.37, 0.81, NewSeededTable(2))
	if a == b {
		t.Fatalf("seeds 1 and 2 agree at (0.37, 0.81): %v", a)
	}
}

func TestEvaluate_Continuity(t *testing.T) {
	tbl := NewTable()
	a := Evaluate(1.000, 1.000, tbl)
	b := Evaluate(1.001, 1.000, tbl)
	if d := math.Abs(a - b); d > 0.01 {
		t.Fatalf("|f(1.000,1) - f(1.001,1)| = %v, want small", d)
	}

	// Across a cell boundary the field stays continuous.
	const eps = 1e-9
	for _, y := range []float64{0.25, 0.5, 3.75} {
		left := Evaluate(2-eps, y, tbl)
		right := Evaluate(2+eps, y, tbl)
		if d := math.Abs(left - right); d > 1e-6 {
			t.Errorf("discontinuity at x=2, y=%v: %v vs %v", y, left, right)
		}
	}
}

func TestEvaluate_CornerOrientation(t *testing.T) {
	// Just inside the top-left corner the top-left dot product dominates,
	// just inside the bottom-right corner the bottom-right one does.
	tbl := NewSeededTable(11)
	const d = 1e-3

	gTL := gradients[tbl.hash(0, 0)&3]
	wantTL := (d*gTL[0] + d*gTL[1] + 1) / 2
	if got := Evaluate(d, d, tbl); math.Abs(got-wantTL) > 1e-6 {
		t.Errorf("near top-left: got %v, want %v", got, wantTL)
	}

	gBR := gradients[tbl.hash(1, 1)&3]
	wantBR := (-d*gBR[0] - d*gBR[1] + 1) / 2
	if got := Evaluate(1-d, 1-d, tbl); math.Abs(got-wantBR) > 1e-6 {
		t.Errorf("near bottom-right: got %v, want %v", got, wantBR)
	}
}

func TestFade(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{1, 1},
		{0.5, 0.5},
		{0.25, 0.103515625},
	}
	for _, tt := range tests {
		if got := fade(tt.in); math.Abs(got-tt.want) > tolerance {
			t.Errorf("fade(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLerp(t *testing.T) {
	if got := lerp(0.25, 2, 6); got != 3 {
		t.Errorf("lerp(0.25, 2, 6) = %v, want 3", got)
	}
	if got := lerp(0, -1, 1); got != -1 {
		t.Errorf("lerp(0, -1, 1) = %v, want -1", got)
	}
}

func TestField_At(t *testing.T) {
	tbl := NewTable()
	f := NewField(tbl, 100)
	if got, want := f.At(37, 81), Evaluate(0.37, 0.81, tbl); math.Abs(got-want) > tolerance {
		t.Errorf("At(37, 81) = %v, want %v", got, want)
	}
	if got := f.At(300, 500); got != 0.5 {
		t.Errorf("At(300, 500) = %v, want 0.5", got)
	}

	if NewField(tbl, 0).PxPerGrid != DefaultPxPerGrid {
		t.Errorf("expected default px per grid for non-positive input")
	}
}
