package main

import "testing"

func TestVec3Flag(t *testing.T) {
	v, err := vec3Flag("at", []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("vec3Flag: %v", err)
	}
	if v != [3]float64{1, 2, 3} {
		t.Errorf("vec3Flag = %v", v)
	}

	for _, bad := range [][]float64{nil, {1, 2}, {1, 2, 3, 4}} {
		if _, err := vec3Flag("at", bad); err == nil {
			t.Errorf("vec3Flag(%v) succeeded, want error", bad)
		}
	}
}
