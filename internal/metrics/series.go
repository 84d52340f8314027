package metrics

import "github.com/san-kum/genlab/internal/engine"

// Series keeps the most recent values of one per-frame metric, for plots.
type Series struct {
	Key    string
	limit  int
	values []float64
}

func NewSeries(key string, limit int) *Series {
	return &Series{Key: key, limit: limit}
}

// Observe records f.Metrics[Key]. Frames without the key are skipped.
func (s *Series) Observe(f *engine.Frame) {
	if f == nil {
		return
	}
	v, ok := f.Metrics[s.Key]
	if !ok {
		return
	}
	s.values = append(s.values, v)
	if s.limit > 0 && len(s.values) > s.limit {
		s.values = s.values[len(s.values)-s.limit:]
	}
}

func (s *Series) Values() []float64 { return s.values }

func (s *Series) Last() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

func (s *Series) Reset() { s.values = nil }
