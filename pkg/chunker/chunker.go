package chunker

import "strings"

// Config bounds chunk size and overlap, both in runes of source text.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
}

// Span is one chunk of text with its rune offsets into the source.
// Text is exactly the source slice [Start:End).
type Span struct {
	Start int
	End   int
	Text  string
}

// Chunker splits text on sentence boundaries where possible, falling back
// to hard cuts, with adjacent chunks overlapping to preserve context at
// cut points. Output is deterministic for identical input and config.
type Chunker struct {
	config Config
}

func NewWithConfig(config Config) Chunker {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 4
	}
	if config.MinChunkSize == 0 {
		config.MinChunkSize = 100
	}
	return Chunker{config: config}
}

// Chunk splits text into overlapping spans. Empty or whitespace-only
// input yields no spans.
func (c *Chunker) Chunk(text string) []Span {
	runes := []rune(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil
	}

	boundaries := sentenceBoundaries(runes)

	var spans []Span
	pos := 0
	for pos < len(runes) {
		end := pos + c.config.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer the last sentence boundary inside the window;
			// hard cut when none exists.
			if b := lastBoundaryIn(boundaries, pos, end); b > pos {
				end = b
			}
		}

		if span, ok := trimSpan(runes, pos, end); ok {
			spans = append(spans, span)
		}

		if end == len(runes) {
			break
		}
		next := end - c.config.ChunkOverlap
		if next <= pos {
			next = end
		}
		pos = next
	}

	return c.mergeShortTail(runes, spans)
}

// mergeShortTail folds a trailing fragment below MinChunkSize into the
// previous span so no text is dropped from the index.
func (c *Chunker) mergeShortTail(runes []rune, spans []Span) []Span {
	n := len(spans)
	if n < 2 {
		return spans
	}
	last := spans[n-1]
	if last.End-last.Start >= c.config.MinChunkSize {
		return spans
	}
	prev := spans[n-2]
	merged, ok := trimSpan(runes, prev.Start, last.End)
	if !ok {
		return spans
	}
	spans[n-2] = merged
	return spans[:n-1]
}

// sentenceBoundaries returns offsets just past each sentence terminator
// that is followed by whitespace or end of text.
func sentenceBoundaries(runes []rune) []int {
	var out []int
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
			out = append(out, i+1)
		}
	}
	return out
}

// lastBoundaryIn finds the greatest boundary b with lo < b <= hi, or -1.
func lastBoundaryIn(boundaries []int, lo, hi int) int {
	best := -1
	for _, b := range boundaries {
		if b > lo && b <= hi {
			best = b
		}
		if b > hi {
			break
		}
	}
	return best
}

// trimSpan tightens [start,end) to exclude surrounding whitespace.
func trimSpan(runes []rune, start, end int) (Span, bool) {
	for start < end && isSpace(runes[start]) {
		start++
	}
	for end > start && isSpace(runes[end-1]) {
		end--
	}
	if start == end {
		return Span{}, false
	}
	return Span{Start: start, End: end, Text: string(runes[start:end])}, true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
