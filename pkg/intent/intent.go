package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voxdoc/voxdoc/internal/models"
)

// Config holds the confidence policy for fuzzy target resolution.
// Destructive intents require the stricter threshold; near-equal
// destructive candidates are reported, never guessed.
type Config struct {
	ReadThreshold   float64
	DeleteThreshold float64
	AmbiguityMargin float64
}

// Dispatcher classifies transcribed utterances into intents: an ordered
// command grammar first, fuzzy document-name resolution for intents that
// take a target, free-form questions last.
type Dispatcher struct {
	config Config
}

func NewDispatcher(config Config) *Dispatcher {
	if config.ReadThreshold == 0 {
		config.ReadThreshold = 0.50
	}
	if config.DeleteThreshold == 0 {
		config.DeleteThreshold = 0.65
	}
	if config.AmbiguityMargin == 0 {
		config.AmbiguityMargin = 0.10
	}
	return &Dispatcher{config: config}
}

var (
	stopPattern      = regexp.MustCompile(`^(?:stop|cancel|pause|quiet|be quiet|shut up|enough|never mind)$`)
	deleteAllPattern = regexp.MustCompile(`^(?:delete|remove|forget)\s+(?:everything|all(?:\s+(?:documents|files|docs))?)$|^clear(?:\s+(?:the\s+)?(?:workspace|context|session|all))?$`)
	deletePattern    = regexp.MustCompile(`^(?:delete|remove|unload|drop|forget)\s+(?:the\s+)?(?:file\s+|document\s+|doc\s+|book\s+)?(.+)$`)
	openPattern      = regexp.MustCompile(`(?i)^(?:open|load|add|ingest|import|read)\s+(?:the\s+)?(?:file\s+|document\s+|doc\s+|book\s+)?(.+)$`)
	summaryPattern   = regexp.MustCompile(`^(?:summarize|summarise|recap|sum up|give me a summary(?: of)?)\s*(.*)$`)
	gotoPattern      = regexp.MustCompile(`^(?:go to|jump to|turn to|navigate to)\s+(?:page|section|chapter)\s+(\S+)$`)
	prevPattern      = regexp.MustCompile(`^(?:previous(?:\s+(?:page|section))?|go back|back)$`)
	nextPattern      = regexp.MustCompile(`^(?:next(?:\s+(?P<unit>page|section|document|file|doc))?|continue|keep reading|go on)$`)
	scopedPattern    = regexp.MustCompile(`^(?:in|from)\s+(.+?)[,:]?\s+((?:what|how|why|who|when|where|which|does|do|is|are|can|tell|explain).+)$`)
	findPattern      = regexp.MustCompile(`^(?:find|search for|look for|look up)\s+(?:the\s+(?:word|phrase|term)\s+)?(.+)$`)
	questionPattern  = regexp.MustCompile(`^(?:what|how|why|who|when|where|which|tell|explain|describe|compare|list|find|search)\b`)
)

// Classify maps one utterance onto the closed intent set. It never
// returns an error: utterances that match nothing, and destructive
// targets that do not resolve confidently, come back as Unrecognized or
// with an empty DocID for the caller to resolve and report.
func (d *Dispatcher) Classify(utterance string, docs []Candidate) models.Intent {
	raw := strings.TrimSpace(utterance)
	// File names and paths are case-sensitive on disk, so the open slot is
	// cut from a case-preserved form of the utterance.
	collapsed := strings.TrimRight(strings.Join(strings.Fields(raw), " "), ".!?")
	norm := strings.ToLower(collapsed)
	if norm == "" {
		return models.Intent{Kind: models.IntentUnrecognized, Utterance: raw}
	}

	if stopPattern.MatchString(norm) {
		return models.Intent{Kind: models.IntentStop, Utterance: raw}
	}

	if deleteAllPattern.MatchString(norm) {
		return models.Intent{Kind: models.IntentDeleteAll, Utterance: raw}
	}

	if m := deletePattern.FindStringSubmatch(norm); m != nil {
		it := models.Intent{Kind: models.IntentDeleteDocument, Utterance: raw, Target: m[1]}
		if match, err := d.Resolve(m[1], docs, true); err == nil {
			it.DocID = match.ID
			it.Confidence = match.Score
		}
		return it
	}

	if m := gotoPattern.FindStringSubmatch(norm); m != nil {
		page, ok := parsePageNumber(m[1])
		if !ok {
			return models.Intent{Kind: models.IntentUnrecognized, Utterance: raw}
		}
		return models.Intent{Kind: models.IntentNavigatePage, Utterance: raw, Page: page}
	}

	if prevPattern.MatchString(norm) {
		return models.Intent{Kind: models.IntentNavigateNext, Utterance: raw, Delta: -1}
	}

	if m := nextPattern.FindStringSubmatch(norm); m != nil {
		it := models.Intent{Kind: models.IntentNavigateNext, Utterance: raw, Delta: 1}
		unit := m[nextPattern.SubexpIndex("unit")]
		if unit == "document" || unit == "file" || unit == "doc" {
			it.Target = "document"
		}
		return it
	}

	if m := summaryPattern.FindStringSubmatch(norm); m != nil {
		return d.classifySummary(raw, m[1], docs)
	}

	if m := openPattern.FindStringSubmatch(collapsed); m != nil {
		// The slot is a file path or name; extraction decides whether it
		// can be ingested, so no fuzzy resolution happens here.
		return models.Intent{Kind: models.IntentOpenDocument, Utterance: raw, Target: strings.TrimSpace(m[1])}
	}

	if m := findPattern.FindStringSubmatch(norm); m != nil {
		// Literal text search, as opposed to semantic retrieval.
		return models.Intent{Kind: models.IntentFind, Utterance: raw, Query: strings.TrimSpace(m[1])}
	}

	if m := scopedPattern.FindStringSubmatch(norm); m != nil {
		if match, err := d.Resolve(m[1], docs, false); err == nil {
			return models.Intent{
				Kind:       models.IntentQuery,
				Utterance:  raw,
				Target:     m[1],
				DocID:      match.ID,
				Confidence: match.Score,
				Query:      m[2],
			}
		}
	}

	if questionPattern.MatchString(norm) || strings.HasSuffix(raw, "?") || len(strings.Fields(norm)) >= 2 {
		return models.Intent{Kind: models.IntentQuery, Utterance: raw, Query: raw}
	}

	return models.Intent{Kind: models.IntentUnrecognized, Utterance: raw}
}

func (d *Dispatcher) classifySummary(raw, slot string, docs []Candidate) models.Intent {
	it := models.Intent{Kind: models.IntentSummarize, Utterance: raw, Granularity: models.SummaryBrief}

	slot = strings.TrimSpace(slot)
	for _, w := range []string{"briefly", "in brief", "quickly", "short"} {
		if strings.Contains(slot, w) {
			slot = strings.TrimSpace(strings.ReplaceAll(slot, w, ""))
		}
	}
	for _, w := range []string{"in detail", "detailed", "at length", "fully"} {
		if strings.Contains(slot, w) {
			it.Granularity = models.SummaryDetailed
			slot = strings.TrimSpace(strings.ReplaceAll(slot, w, ""))
		}
	}
	slot = strings.TrimSuffix(slot, " of")
	slot = strings.TrimSpace(slot)

	switch slot {
	case "", "all", "everything", "all documents", "all files", "them all":
		return it // empty target means every loaded document
	}

	it.Target = slot
	if match, err := d.Resolve(slot, docs, false); err == nil {
		it.DocID = match.ID
		it.Confidence = match.Score
	}
	return it
}

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

func parsePageNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, true
	}
	if n, ok := wordNumbers[s]; ok {
		return n, true
	}
	return 0, false
}
