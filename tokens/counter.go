// Package tokens estimates prompt sizes for request logging.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Counter loads its encoding on first use. A failed load is remembered and
// returned from every later call.
type Counter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{encoding: encoding}
}

// Count returns the total number of tokens across texts.
func (c *Counter) Count(texts ...string) (int, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(c.encoding)
		if c.err != nil {
			c.err = fmt.Errorf("load encoding %s: %w", c.encoding, c.err)
		}
	})
	if c.err != nil {
		return 0, c.err
	}

	total := 0
	for _, text := range texts {
		total += len(c.enc.Encode(text, nil, nil))
	}
	return total, nil
}
