// Package tokens provides deterministic BPE-compatible token counting used
// for both client-facing budget arithmetic and internal ranking length
// normalization. Counting must be identical across every caller in the
// process, so the encoder is built once and reused.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
)

func encoder() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, err
}

// Count returns the number of cl100k_base tokens in text. If the encoder
// fails to initialize (should not happen with the bundled vocabulary) it
// falls back to a conservative character-based estimate rather than
// panicking, since budget arithmetic must never crash a request.
func Count(text string) int {
	if text == "" {
		return 0
	}
	e, encErr := encoder()
	if encErr != nil {
		return len(text)/4 + 1
	}
	return len(e.Encode(text, nil, nil))
}

// CountAll sums Count over multiple strings.
func CountAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += Count(t)
	}
	return total
}
