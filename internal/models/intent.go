package models

// IntentKind is the closed set of actions an utterance can map to.
type IntentKind int

const (
	IntentUnrecognized IntentKind = iota
	IntentOpenDocument
	IntentDeleteDocument
	IntentDeleteAll
	IntentQuery
	IntentFind
	IntentSummarize
	IntentNavigatePage
	IntentNavigateNext
	IntentStop
)

func (k IntentKind) String() string {
	switch k {
	case IntentOpenDocument:
		return "open"
	case IntentDeleteDocument:
		return "delete"
	case IntentDeleteAll:
		return "delete_all"
	case IntentQuery:
		return "query"
	case IntentFind:
		return "find"
	case IntentSummarize:
		return "summarize"
	case IntentNavigatePage:
		return "navigate_page"
	case IntentNavigateNext:
		return "navigate_next"
	case IntentStop:
		return "stop"
	default:
		return "unrecognized"
	}
}

// Granularity selects how long a summary should be.
type Granularity int

const (
	SummaryBrief Granularity = iota
	SummaryDetailed
)

// Intent is one classified utterance. Slots are filled only where the
// kind requires them; Confidence reflects the fuzzy target resolution and
// is zero for intents without a document target.
type Intent struct {
	Kind        IntentKind
	Utterance   string
	Target      string
	DocID       string
	Confidence  float64
	Page        int
	Delta       int
	Granularity Granularity
	Query       string
}
