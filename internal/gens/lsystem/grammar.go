package lsystem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/san-kum/genlab/internal/engine"
)

// ProbabilityTolerance is how far a symbol's rule probabilities may sum
// away from 1.
const ProbabilityTolerance = 1e-7

// MaxWordLength stops expansions that would exhaust memory.
const MaxWordLength = 4_000_000

var ErrWordTooLong = errors.New("lsystem: expanded word too long")

// Rule rewrites Symbol into Replacement. Weighted rules carry a probability
// and only make sense in a probabilistic grammar.
type Rule struct {
	Symbol      rune
	Replacement string
	Probability float64
	Weighted    bool
}

type Grammar struct {
	Alphabet      string
	Axiom         string
	Rules         []Rule
	Probabilistic bool
}

// ruleLine is one "A=RHS" or "A=RHS(p)" line.
type ruleLine struct {
	Left  []string `parser:"@Sym*"`
	Right []string `parser:"\"=\" @Sym*"`
	Prob  *string  `parser:"@Prob?"`
}

var ruleParser = participle.MustBuild[ruleLine](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "whitespace", Pattern: `[ \t]+`},
		{Name: "Prob", Pattern: `\(\s*[0-9]*\.?[0-9]+\s*\)`},
		{Name: "Eq", Pattern: `=`},
		{Name: "Sym", Pattern: `[^=()\s]`},
	})),
)

// ParseRules reads one rule per line. Blank lines are skipped.
func ParseRules(text string) ([]Rule, error) {
	var rules []Rule
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parsed, err := ruleParser.ParseString("", line)
		if err != nil {
			return nil, &engine.ValidationError{Field: "rules", Msg: "Rule contains illegal characters."}
		}
		if len(parsed.Left) != 1 {
			return nil, engine.Invalid("rules", "Only single characters are allowed on the left side of a rule.")
		}

		r := Rule{
			Symbol:      []rune(parsed.Left[0])[0],
			Replacement: strings.Join(parsed.Right, ""),
		}
		if parsed.Prob != nil {
			p, err := strconv.ParseFloat(strings.Trim(*parsed.Prob, "() \t"), 64)
			if err != nil {
				return nil, engine.Invalid("rules", fmt.Sprintf("Invalid probability %s.", *parsed.Prob))
			}
			r.Probability = p
			r.Weighted = true
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func inAlphabet(alphabet, word string) bool {
	for _, ch := range word {
		if !strings.ContainsRune(alphabet, ch) {
			return false
		}
	}
	return true
}

// Validate checks the grammar before anything is expanded or drawn.
func (g Grammar) Validate() error {
	for _, r := range g.Rules {
		if !strings.ContainsRune(g.Alphabet, r.Symbol) || !inAlphabet(g.Alphabet, r.Replacement) {
			return engine.Invalid("rules", "Rule contains illegal characters.")
		}
		if r.Weighted && !g.Probabilistic {
			return engine.Invalid("rules", "Rule contains illegal characters.")
		}
	}

	if !g.Probabilistic {
		seen := make(map[rune]bool)
		for _, r := range g.Rules {
			if seen[r.Symbol] {
				return engine.Invalid("rules", "The ruleset has to be deterministic")
			}
			seen[r.Symbol] = true
		}
	}

	if !inAlphabet(g.Alphabet, g.Axiom) {
		return engine.Invalid("axiom", "Axiom contains characters that are not in the alphabet")
	}

	if g.Probabilistic {
		return CheckProbabilities(g.Alphabet, g.Rules)
	}
	return nil
}

// CheckProbabilities requires every symbol to have either one plain rule or
// only weighted rules whose probabilities sum to 1.
func CheckProbabilities(alphabet string, rules []Rule) error {
	for _, ch := range alphabet {
		set := rulesFor(rules, ch)
		if len(set) == 0 {
			continue
		}
		if !allWeighted(set) {
			if len(set) > 1 {
				return engine.Invalid("rules", fmt.Sprintf("Please add probabilities to all rules for character %c", ch))
			}
			continue
		}

		sum := 0.0
		for _, r := range set {
			sum += r.Probability
		}
		if math.Abs(1-sum) >= ProbabilityTolerance {
			return engine.Invalid("rules", fmt.Sprintf("Probabilities for character %c have to be 100%% in sum.", ch))
		}
	}
	return nil
}

func rulesFor(rules []Rule, ch rune) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Symbol == ch {
			out = append(out, r)
		}
	}
	return out
}

func allWeighted(rules []Rule) bool {
	for _, r := range rules {
		if !r.Weighted {
			return false
		}
	}
	return true
}

// table indexes a validated rule set by symbol.
type table map[rune][]Rule

func newTable(rules []Rule) table {
	t := make(table)
	for _, r := range rules {
		t[r.Symbol] = append(t[r.Symbol], r)
	}
	return t
}

func (t table) pick(ch rune, rng *rand.Rand) (string, bool) {
	set := t[ch]
	switch {
	case len(set) == 0:
		return "", false
	case len(set) == 1:
		return set[0].Replacement, true
	}

	target := rng.Float64()
	cum := 0.0
	for _, r := range set {
		cum += r.Probability
		if cum >= target {
			return r.Replacement, true
		}
	}
	return set[len(set)-1].Replacement, true
}

// Expand rewrites the axiom iterations times. rng is only consulted for
// symbols with several weighted rules.
func (g Grammar) Expand(ctx context.Context, iterations int, rng *rand.Rand) (string, error) {
	t := newTable(g.Rules)
	word := g.Axiom

	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var b strings.Builder
		b.Grow(len(word) * 2)
		for _, ch := range word {
			if rep, ok := t.pick(ch, rng); ok {
				b.WriteString(rep)
			} else {
				b.WriteRune(ch)
			}
			if b.Len() > MaxWordLength {
				return "", fmt.Errorf("%w: more than %d symbols after %d iterations", ErrWordTooLong, MaxWordLength, i+1)
			}
		}
		word = b.String()
	}
	return word, nil
}
