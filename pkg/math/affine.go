package math

// Affine2 is a 2D transform limited to per-axis scale plus translation.
// Points are scaled first, then translated.
type Affine2 struct {
	Scale       Vec2
	Translation Vec2
}

// Identity2 returns the identity transform.
func Identity2() Affine2 {
	return Affine2{Scale: Vec2{1, 1}}
}

// ScaleTranslate2 builds a transform from a scale and a translation.
func ScaleTranslate2(scale, translation Vec2) Affine2 {
	return Affine2{Scale: scale, Translation: translation}
}

// TransformPoint applies the transform to p.
func (a Affine2) TransformPoint(p Vec2) Vec2 {
	return p.Mul(a.Scale).Add(a.Translation)
}

// Then returns the transform that applies a first and b second.
func (a Affine2) Then(b Affine2) Affine2 {
	return Affine2{
		Scale:       a.Scale.Mul(b.Scale),
		Translation: b.TransformPoint(a.Translation),
	}
}
