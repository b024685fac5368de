package math

import (
	gomath "math"
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec2Normalize(t *testing.T) {
	v := Vec2{3, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec2.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec2{}).Normalize() != (Vec2{}) {
		t.Error("Vec2.Normalize() of zero should stay zero")
	}
}

func TestVec2Round(t *testing.T) {
	tests := []struct {
		in   Vec2
		want Vec2
	}{
		{Vec2{0.4, -0.4}, Vec2{0, 0}},
		{Vec2{0.5, -0.5}, Vec2{1, -1}},
		{Vec2{2.6, -7.2}, Vec2{3, -7}},
	}
	for _, tt := range tests {
		if got := tt.in.Round(); got != tt.want {
			t.Errorf("Vec2%v.Round() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVec2Signum(t *testing.T) {
	got := Vec2{-3, 0}.Signum()
	want := Vec2{-1, 0}
	if got != want {
		t.Errorf("Vec2.Signum() = %v, want %v", got, want)
	}
}

func TestVec2Finite(t *testing.T) {
	nan := float32(gomath.NaN())
	inf := float32(gomath.Inf(1))
	if (Vec2{nan, 0}).IsFinite() {
		t.Error("NaN component reported finite")
	}
	if (Vec2{0, inf}).IsFinite() {
		t.Error("Inf component reported finite")
	}
	if !(Vec2{nan, 0}).IsNaN() {
		t.Error("IsNaN() = false for NaN component")
	}
	if !(Vec2{1, 2}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
}

func TestAffine2(t *testing.T) {
	// Pixel space of a 4x2 texture into centered, y-up anchor space.
	a := ScaleTranslate2(Vec2{0.25, -0.5}, Vec2{-0.5, 0.5})

	tests := []struct {
		in   Vec2
		want Vec2
	}{
		{Vec2{0, 0}, Vec2{-0.5, 0.5}},
		{Vec2{2, 1}, Vec2{0, 0}},
		{Vec2{4, 2}, Vec2{0.5, -0.5}},
	}
	for _, tt := range tests {
		if got := a.TransformPoint(tt.in); got != tt.want {
			t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	chained := Identity2().Then(a)
	if got := chained.TransformPoint(Vec2{2, 1}); got != (Vec2{0, 0}) {
		t.Errorf("Identity.Then(a) moved the center: %v", got)
	}
}
