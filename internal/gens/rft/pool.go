package rft

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/san-kum/genlab/internal/gens"
)

// Func is a pool entry. F receives exactly Arity arguments in [0,1] and
// returns a value in [0,1].
type Func struct {
	Name  string
	Arity int
	F     func(args []float64) float64
}

var basic = []Func{
	{"sin", 1, func(a []float64) float64 { return math.Abs(math.Sin(2 * math.Pi * a[0])) }},
	{"cos", 1, func(a []float64) float64 { return math.Abs(math.Cos(2 * math.Pi * a[0])) }},
	{"pow", 2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	{"mean", 2, mean},
	{"mul", 2, product},
	{"diff", 2, func(a []float64) float64 { return math.Abs(a[0] - a[1]) }},
}

var wide = []Func{
	{"sqrt", 1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	{"inv", 1, func(a []float64) float64 { return 1 - a[0] }},
	{"mean3", 3, mean},
	{"median3", 3, median},
	{"mul3", 3, product},
	{"mean4", 4, mean},
	{"median4", 4, median},
	{"mean5", 5, mean},
	{"median5", 5, median},
	{"mul5", 5, product},
}

func mean(a []float64) float64 {
	var s float64
	for _, v := range a {
		s += v
	}
	return s / float64(len(a))
}

func product(a []float64) float64 {
	p := 1.0
	for _, v := range a {
		p *= v
	}
	return p
}

func median(a []float64) float64 {
	s := slices.Clone(a)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Pool is a catalogue of functions with a seeded selector.
type Pool struct {
	funcs  []Func
	leaves []Func
	rng    *rand.Rand
}

// NewPool returns the basic catalogue, or the wide one holding arities up
// to five when extended is set.
func NewPool(extended bool, seed int64) *Pool {
	funcs := slices.Clone(basic)
	if extended {
		funcs = append(funcs, wide...)
	}
	p := &Pool{funcs: funcs}
	for _, f := range funcs {
		if f.Arity <= 2 {
			p.leaves = append(p.leaves, f)
		}
	}
	p.Reseed(seed)
	return p
}

func (p *Pool) Reseed(seed int64) {
	p.rng = gens.NewRand(seed)
}

func (p *Pool) Funcs() []Func { return p.funcs }

func (p *Pool) Random() Func { return p.funcs[p.rng.IntN(len(p.funcs))] }

// Leaf picks among the functions of arity one or two.
func (p *Pool) Leaf() Func { return p.leaves[p.rng.IntN(len(p.leaves))] }
