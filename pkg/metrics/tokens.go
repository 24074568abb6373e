package metrics

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes before they are sent to the LLM.
type TokenCounter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter builds a counter for the given chat model.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

// Count returns the number of tokens in text. When no encoding can be loaded it
// falls back to a rough four-bytes-per-token estimate.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return estimate(text)
}

func (c *TokenCounter) encoding() *tiktoken.Tiktoken {
	if c == nil {
		return nil
	}
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
		if err == nil {
			c.enc = enc
		}
	})
	return c.enc
}

func estimate(text string) int {
	n := len(text) / 4
	if runes := utf8.RuneCountInString(text); runes > n {
		// Hangul is roughly one token per syllable.
		n = runes
	}
	if n == 0 {
		n = 1
	}
	return n
}
