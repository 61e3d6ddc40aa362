package combine

import (
	"math"
	"testing"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec4"

	"github.com/flywave/go3d/vec3"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestTransformPointTranslation(t *testing.T) {
	m := translation(5, -1, 2)
	got := transformPoint(m, vec3.T{1, 1, 1})
	want := vec3.T{6, 0, 3}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTransformPointScale(t *testing.T) {
	m := dmat.Ident
	m[0] = vec4.T{2, 0, 0, 0}
	m[1] = vec4.T{0, 3, 0, 0}
	got := transformPoint(&m, vec3.T{1, 1, 1})
	want := vec3.T{2, 3, 1}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNormalMatrixNonUniformScale(t *testing.T) {
	// scaling x by 2 must shrink the x component of normals, not grow it
	m := dmat.Ident
	m[0] = vec4.T{2, 0, 0, 0}
	nm := newNormalMatrix(&m)

	s := float32(1 / math.Sqrt2)
	got := transformNormal(&nm, vec3.T{s, s, 0})

	l := math.Sqrt(0.5*0.5 + 1)
	want := vec3.T{float32(0.5 / l), float32(1 / l), 0}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNormalMatrixTranslationIgnored(t *testing.T) {
	nm := newNormalMatrix(translation(10, 20, 30))
	got := transformNormal(&nm, vec3.T{0, 0, 1})
	if !approx(got[0], 0) || !approx(got[1], 0) || !approx(got[2], 1) {
		t.Fatalf("got %v, want +Z", got)
	}
}

func TestTransformNormalDegenerate(t *testing.T) {
	var m dmat.T // singular
	nm := newNormalMatrix(&m)
	got := transformNormal(&nm, vec3.T{1, 0, 0})
	if got != (vec3.T{0, 0, 1}) {
		t.Fatalf("got %v, want +Z fallback", got)
	}
}
