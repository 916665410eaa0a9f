// Package history keeps the per-session series of cumulative scores, one
// point per completed game.
package history

// MaxSamples is the approximate number of points a chart is drawn from.
const MaxSamples = 100

type Point struct {
	Completed int     `json:"completed"`
	Score1    float64 `json:"score1"`
	Score2    float64 `json:"score2"`
}

// Sampler is append-only between Clear calls.
type Sampler struct {
	points []Point
}

func New() *Sampler { return &Sampler{} }

func (s *Sampler) Append(p Point) { s.points = append(s.points, p) }

func (s *Sampler) Clear() { s.points = nil }

func (s *Sampler) Len() int { return len(s.points) }

// Points returns a copy of the full history.
func (s *Sampler) Points() []Point {
	return append([]Point(nil), s.points...)
}

// Sampled keeps every step-th point in arrival order, starting with the
// first, where step = max(1, n/MaxSamples).
func (s *Sampler) Sampled() []Point {
	return Downsample(s.points)
}

func Downsample(points []Point) []Point {
	n := len(points)
	step := max(1, n/MaxSamples)
	out := make([]Point, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		out = append(out, points[i])
	}
	return out
}
