package main

import "testing"

func TestPlausibleSampleBand(t *testing.T) {
	cases := []struct {
		s    RawSample
		want bool
	}{
		{RawSample{X: 512, Y: 512}, true},
		{RawSample{X: 101, Y: 3999}, true},
		{RawSample{X: 100, Y: 512}, false},
		{RawSample{X: 4000, Y: 512}, false},
		{RawSample{X: 512, Y: 0}, false},
		{RawSample{X: 512, Y: 4095}, false},
	}
	for _, c := range cases {
		if got := plausibleSample(c.s); got != c.want {
			t.Errorf("plausibleSample(%+v) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestFilterTouchBatchAverages(t *testing.T) {
	readings := []RawSample{
		{X: 512, Y: 512},
		{X: 515, Y: 510},
		{X: 509, Y: 515},
	}
	got := filterTouchBatch(readings, 3, touchTolerance)
	if got == nil {
		t.Fatal("tight batch should be accepted")
	}
	if got.X != 512 || got.Y != 512 {
		t.Errorf("average = (%d,%d), want (512,512)", got.X, got.Y)
	}
}

func TestFilterTouchBatchRejectsSpread(t *testing.T) {
	// One wild reading blows the spread past tolerance: a finger in motion.
	readings := []RawSample{
		{X: 512, Y: 512},
		{X: 515, Y: 510},
		{X: 509, Y: 515},
		{X: 3800, Y: 3800},
	}
	if got := filterTouchBatch(readings, 3, touchTolerance); got != nil {
		t.Errorf("spread batch should be rejected, got %+v", got)
	}
}

func TestFilterTouchBatchNeedsQuorum(t *testing.T) {
	readings := []RawSample{
		{X: 512, Y: 512},
		{X: 513, Y: 511},
	}
	if got := filterTouchBatch(readings, 3, touchTolerance); got != nil {
		t.Errorf("undersized batch should be rejected, got %+v", got)
	}
	if got := filterTouchBatch(nil, 3, touchTolerance); got != nil {
		t.Errorf("empty batch should be rejected, got %+v", got)
	}
}
