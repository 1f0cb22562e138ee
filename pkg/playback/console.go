package playback

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Console renders replies to the terminal sentence by sentence, pacing
// output like speech so a Stop can interrupt mid-reply. It stands in for
// an audio playback transport.
type Console struct {
	mu     sync.Mutex
	cancel context.CancelFunc

	// SentencePause is the delay between sentences; zero disables pacing.
	SentencePause time.Duration
	printf        func(format string, a ...interface{})
}

func NewConsole() *Console {
	return &Console{
		SentencePause: 150 * time.Millisecond,
		printf:        color.New(color.FgCyan).PrintfFunc(),
	}
}

// Speak writes the text out, honoring both the passed context and Stop.
func (c *Console) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	for _, sentence := range splitSentences(text) {
		select {
		case <-ctx.Done():
			c.printf("\n")
			return ctx.Err()
		default:
		}
		c.printf("%s ", sentence)
		if c.SentencePause > 0 {
			select {
			case <-ctx.Done():
				c.printf("\n")
				return ctx.Err()
			case <-time.After(c.SentencePause):
			}
		}
	}
	c.printf("\n")
	return nil
}

// Stop interrupts the in-flight Speak, if any.
func (c *Console) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
