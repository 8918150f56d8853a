// Package tokenizer provides the token-counting handle used for chunk
// sizing. The encoding is chosen to match the embedding model family so
// chunk sizes stay meaningful relative to its context window.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Tiktoken wraps a tiktoken BPE encoding behind the domain Tokenizer
// interface.
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
}

// New creates a tokenizer for the given encoding name, falling back to
// cl100k_base when the name is empty or unknown.
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		tke, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("load default encoding %q: %w", defaultEncoding, err)
		}
		encoding = defaultEncoding
	}
	return &Tiktoken{encodingName: encoding, tke: tke}, nil
}

// Encoding returns the name of the encoding actually in use.
func (t *Tiktoken) Encoding() string { return t.encodingName }

func (t *Tiktoken) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.tke.Decode(tokens)
}

func (t *Tiktoken) Count(text string) int {
	return len(t.tke.Encode(text, nil, nil))
}
