package intent

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/voxdoc/voxdoc/internal/models"
)

// Candidate is one registered document a spoken name can resolve to.
type Candidate struct {
	ID         string
	Name       string
	IngestedAt time.Time
}

// Match is a resolved target with its confidence score in [0,1].
type Match struct {
	ID    string
	Name  string
	Score float64
}

var (
	extPattern      = regexp.MustCompile(`\.[a-z0-9]{1,5}$`)
	nonWordPattern  = regexp.MustCompile(`[^a-z0-9]+`)
	maxCandidateSet = 3
)

// normalizeName lowercases, strips a trailing file extension, and folds
// separators into single spaces, so "Chemistry_101.pdf" scores as
// "chemistry 101".
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = extPattern.ReplaceAllString(s, "")
	s = nonWordPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// scoreName rates how well a spoken phrase matches a display name.
// Whole-word containment scores 1.0, word-prefix matches scale with how
// much of the word was spoken, and Levenshtein similarity covers
// misspellings. Deterministic by construction.
func scoreName(spoken, name string) float64 {
	q := normalizeName(spoken)
	n := normalizeName(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1
	}
	if strings.Contains(" "+n+" ", " "+q+" ") {
		return 1
	}

	best := levenshteinSim(q, n)
	for _, tok := range strings.Fields(n) {
		if strings.HasPrefix(tok, q) {
			if s := 0.6 + 0.4*float64(len(q))/float64(len(tok)); s > best {
				best = s
			}
			continue
		}
		if s := levenshteinSim(q, tok); s > best {
			best = s
		}
	}
	if fuzzy.MatchNormalizedFold(q, n) {
		if s := 0.5 + 0.3*float64(len(q))/float64(len(n)); s > best {
			best = s
		}
	}
	return best
}

func levenshteinSim(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	d := fuzzy.LevenshteinDistance(a, b)
	if d >= longest {
		return 0
	}
	return 1 - float64(d)/float64(longest)
}

// rank scores every candidate and orders by score, breaking ties toward
// the most recently ingested document.
func rank(spoken string, docs []Candidate) []Match {
	byID := make(map[string]time.Time, len(docs))
	matches := make([]Match, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d.IngestedAt
		matches = append(matches, Match{ID: d.ID, Name: d.Name, Score: scoreName(spoken, d.Name)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return byID[matches[i].ID].After(byID[matches[j].ID])
	})
	return matches
}

// Resolve maps a spoken name onto exactly one registered document.
// Destructive resolution uses the stricter threshold and refuses to
// guess between near-equal candidates; read resolution breaks near-ties
// toward the most recently ingested document.
func (d *Dispatcher) Resolve(spoken string, docs []Candidate, destructive bool) (Match, error) {
	if len(docs) == 0 {
		return Match{}, &models.DocumentNotFoundError{Name: spoken}
	}

	matches := rank(spoken, docs)
	top := matches[0]

	threshold := d.config.ReadThreshold
	if destructive {
		threshold = d.config.DeleteThreshold
	}

	if top.Score < threshold {
		return Match{}, &models.AmbiguousTargetError{
			Spoken:     spoken,
			Candidates: candidateSet(matches),
		}
	}

	if destructive && len(matches) > 1 && matches[1].Score >= top.Score-d.config.AmbiguityMargin {
		var within []Match
		for _, m := range matches {
			if m.Score >= top.Score-d.config.AmbiguityMargin {
				within = append(within, m)
			}
		}
		return Match{}, &models.AmbiguousTargetError{
			Spoken:     spoken,
			Candidates: candidateSet(within),
		}
	}

	return top, nil
}

func candidateSet(matches []Match) []models.TargetCandidate {
	out := make([]models.TargetCandidate, 0, maxCandidateSet)
	for _, m := range matches {
		if m.Score <= 0 || len(out) == maxCandidateSet {
			break
		}
		out = append(out, models.TargetCandidate{ID: m.ID, Name: m.Name, Score: m.Score})
	}
	return out
}
