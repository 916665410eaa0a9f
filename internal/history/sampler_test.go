package history

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func fill(n int) *Sampler {
	s := New()
	for i := 0; i < n; i++ {
		s.Append(Point{Completed: i + 1, Score1: float64(i) / 2, Score2: float64(i) / 3})
	}
	return s
}

func TestSampledKeepsEverythingUpToLimit(t *testing.T) {
	for _, n := range []int{0, 1, 57, 100} {
		s := fill(n)
		got := s.Sampled()
		if len(got) != n {
			t.Fatalf("n=%d: sampled %d points", n, len(got))
		}
		for i := range got {
			if got[i].Completed != i+1 {
				t.Fatalf("n=%d: point %d reordered", n, i)
			}
		}
	}
}

func TestSampledStepsThroughLongHistory(t *testing.T) {
	for _, n := range []int{101, 199, 200, 250, 1000, 1234} {
		s := fill(n)
		step := max(1, n/MaxSamples)
		want := (n + step - 1) / step
		got := s.Sampled()
		if len(got) != want {
			t.Fatalf("n=%d: sampled %d points, want %d", n, len(got), want)
		}
		if got[0].Completed != 1 {
			t.Fatalf("n=%d: first point missing", n)
		}
		for i, p := range got {
			if p.Completed != i*step+1 {
				t.Fatalf("n=%d: point %d = %d, want index %d", n, i, p.Completed, i*step)
			}
		}
	}
}

func TestClearAndPointsCopy(t *testing.T) {
	s := fill(3)
	pts := s.Points()
	pts[0].Score1 = 99
	if s.Points()[0].Score1 == 99 {
		t.Fatalf("Points leaked internal slice")
	}
	s.Clear()
	if s.Len() != 0 || len(s.Sampled()) != 0 {
		t.Fatalf("Clear left %d points", s.Len())
	}
}

func TestRenderPNG(t *testing.T) {
	if _, err := RenderPNG(nil, ChartOptions{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	raw, err := RenderPNG([]Point{{Completed: 1, Score1: 1}}, ChartOptions{Width: 320, Height: 200, Name1: "LC0", Name2: "SF"})
	if err != nil {
		t.Fatalf("RenderPNG single point: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 200 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if _, err := RenderPNG(fill(300).Sampled(), ChartOptions{}); err != nil {
		t.Fatalf("RenderPNG long: %v", err)
	}
}
