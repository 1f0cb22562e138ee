package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/pkg/intent"
	"github.com/voxdoc/voxdoc/pkg/logger"
	"github.com/voxdoc/voxdoc/pkg/retriever"
	"github.com/voxdoc/voxdoc/pkg/session"
)

// Synthesizer is the slice of the chat engine the assistant needs.
type Synthesizer interface {
	Answer(ctx context.Context, question string, chunks []models.RetrievedChunk) (string, error)
	Summarize(ctx context.Context, samples []models.SummarySample, granularity models.Granularity) (string, error)
}

// Assistant executes classified intents against the session. Every reply
// is text ready to be spoken. Long-running work (extraction, embedding,
// synthesis) runs under a cancellable context tracked here, so a Stop
// pre-empts it; registry mutations themselves are serialized inside the
// session manager and always complete or roll back whole.
type Assistant struct {
	dispatcher *intent.Dispatcher
	manager    *session.Manager
	retriever  *retriever.Retriever
	synth      Synthesizer
	topK       int

	mu       sync.Mutex
	inflight context.CancelFunc
	focusDoc string
}

func New(dispatcher *intent.Dispatcher, manager *session.Manager, retriever *retriever.Retriever, synth Synthesizer, topK int) *Assistant {
	if topK <= 0 {
		topK = 5
	}
	return &Assistant{
		dispatcher: dispatcher,
		manager:    manager,
		retriever:  retriever,
		synth:      synth,
		topK:       topK,
	}
}

// Stop cancels whatever synthesis or ingestion is in flight. It never
// interrupts a registry mutation mid-transaction; the manager's lock
// guarantees a delete either completes or rolls back first.
func (a *Assistant) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight != nil {
		a.inflight()
	}
}

// Handle classifies one utterance and executes it, returning the spoken
// reply. Known failure modes come back as corrective speech; only
// internal faults surface as errors.
func (a *Assistant) Handle(ctx context.Context, utterance string) (string, error) {
	it := a.dispatcher.Classify(utterance, a.manager.Listing())
	logger.Infow("utterance classified", "intent", it.Kind.String(), "target", it.Target, "confidence", it.Confidence)

	switch it.Kind {
	case models.IntentStop:
		a.Stop()
		return "Stopped.", nil

	case models.IntentOpenDocument:
		return a.handleOpen(a.trackCancel(ctx), it)

	case models.IntentDeleteDocument:
		return a.handleDelete(it)

	case models.IntentDeleteAll:
		n := a.manager.Len()
		a.manager.Clear()
		a.setFocus("")
		if n == 0 {
			return "Nothing was loaded.", nil
		}
		return fmt.Sprintf("Cleared %d documents.", n), nil

	case models.IntentQuery:
		return a.handleQuery(a.trackCancel(ctx), it)

	case models.IntentFind:
		return a.handleFind(it)

	case models.IntentSummarize:
		return a.handleSummarize(a.trackCancel(ctx), it)

	case models.IntentNavigatePage:
		doc, err := a.focusedDoc()
		if err != nil {
			return "No document is open.", nil
		}
		page, err := a.manager.GoToPage(doc, it.Page)
		if err != nil {
			return spoken(err), nil
		}
		return fmt.Sprintf("%s. %s", page.Label, page.Text), nil

	case models.IntentNavigateNext:
		return a.handleNavigateNext(it)

	case models.IntentUnrecognized:
		return "Sorry, I didn't catch that. You can say open, delete, summarize, go to page, or ask a question.", nil

	default:
		return "", fmt.Errorf("unhandled intent %v", it.Kind)
	}
}

func (a *Assistant) handleOpen(ctx context.Context, it models.Intent) (string, error) {
	defer a.clearCancel()
	doc, err := a.manager.Ingest(ctx, it.Target)
	if err != nil {
		if isSpoken(err) {
			return spoken(err), nil
		}
		return "", err
	}
	a.setFocus(doc.ID)
	return fmt.Sprintf("Loaded %s: %d pages, %d passages indexed.", doc.Name, len(doc.Pages), len(doc.Chunks)), nil
}

func (a *Assistant) handleDelete(it models.Intent) (string, error) {
	var doc models.Document
	var err error
	if it.DocID != "" {
		doc, err = a.manager.Delete(it.DocID)
	} else {
		doc, err = a.manager.DeleteByName(it.Target)
	}
	if err != nil {
		if isSpoken(err) {
			return spoken(err), nil
		}
		return "", err
	}
	if a.focus() == doc.ID {
		a.setFocus("")
	}
	return fmt.Sprintf("Deleted %s.", doc.Name), nil
}

func (a *Assistant) handleQuery(ctx context.Context, it models.Intent) (string, error) {
	defer a.clearCancel()
	if a.manager.Len() == 0 {
		return "No documents are loaded yet. Say open followed by a file name.", nil
	}
	chunks, err := a.retriever.Retrieve(ctx, it.Query, a.topK, it.DocID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "Okay.", nil
		}
		return "", err
	}
	if len(chunks) == 0 {
		return "I couldn't find anything relevant to that in the loaded documents.", nil
	}
	answer, err := a.synth.Answer(ctx, it.Query, chunks)
	if err != nil {
		return spokenSynthesis(err), nil
	}
	return answer, nil
}

// handleFind runs a literal text search across loaded pages, as opposed
// to the semantic retrieval behind questions.
func (a *Assistant) handleFind(it models.Intent) (string, error) {
	if a.manager.Len() == 0 {
		return "No documents are loaded yet.", nil
	}
	matches := a.manager.Find(it.Query)
	if len(matches) == 0 {
		return fmt.Sprintf("I couldn't find %q in the loaded documents.", it.Query), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %q in %d places.", it.Query, len(matches))
	for i, m := range matches {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, " In %s, %s: %s.", m.DocName, m.Label, m.Snippet)
	}
	return b.String(), nil
}

func (a *Assistant) handleSummarize(ctx context.Context, it models.Intent) (string, error) {
	defer a.clearCancel()
	if a.manager.Len() == 0 {
		return "No documents are loaded yet.", nil
	}
	if it.Target != "" && it.DocID == "" {
		// A target was spoken but did not resolve; re-resolve to get the
		// candidate set for a corrective prompt.
		_, err := a.dispatcher.Resolve(it.Target, a.manager.Listing(), false)
		if err != nil {
			return spoken(err), nil
		}
	}
	samples, err := a.manager.SummarySamples(it.DocID)
	if err != nil {
		return spoken(err), nil
	}
	summary, err := a.synth.Summarize(ctx, samples, it.Granularity)
	if err != nil {
		return spokenSynthesis(err), nil
	}
	return summary, nil
}

func (a *Assistant) handleNavigateNext(it models.Intent) (string, error) {
	if it.Target == "document" {
		doc, err := a.manager.NextDocument(a.focus())
		if err != nil {
			return "No documents are loaded yet.", nil
		}
		a.setFocus(doc.ID)
		page, err := a.manager.CurrentPage(doc.ID)
		if err != nil {
			return fmt.Sprintf("Now on %s.", doc.Name), nil
		}
		return fmt.Sprintf("Now on %s. %s. %s", doc.Name, page.Label, page.Text), nil
	}

	docID, err := a.focusedDoc()
	if err != nil {
		return "No document is open.", nil
	}
	page, err := a.manager.Advance(docID, it.Delta)
	if err != nil {
		return spoken(err), nil
	}
	return fmt.Sprintf("%s. %s", page.Label, page.Text), nil
}

// focusedDoc returns the navigation focus, defaulting to the most
// recently ingested document.
func (a *Assistant) focusedDoc() (string, error) {
	if id := a.focus(); id != "" {
		return id, nil
	}
	docs := a.manager.Documents()
	if len(docs) == 0 {
		return "", &models.DocumentNotFoundError{Name: "any"}
	}
	id := docs[len(docs)-1].ID
	a.setFocus(id)
	return id, nil
}

func (a *Assistant) focus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.focusDoc
}

func (a *Assistant) setFocus(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.focusDoc = id
}

// trackCancel derives a cancellable context for a long-running step and
// registers it as the in-flight operation Stop can pre-empt.
func (a *Assistant) trackCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.inflight = cancel
	a.mu.Unlock()
	return ctx
}

func (a *Assistant) clearCancel() {
	a.mu.Lock()
	if a.inflight != nil {
		a.inflight()
		a.inflight = nil
	}
	a.mu.Unlock()
}
