package csv

import (
	"bytes"
	"io"
)

const rewriteChunk = 64 * 1024

// rewriter replaces pat with repl on the fly. The last len(pat)-1 bytes of
// every chunk are held back so that matches spanning two reads are found.
type rewriter struct {
	r     io.Reader
	pat   []byte
	repl  []byte
	chunk []byte
	carry []byte
	out   bytes.Buffer
	err   error
}

// withRewrites wraps r once per rule. Rules with an empty From or with
// From == To are ignored.
func withRewrites(r io.Reader, rules []Rewrite) io.Reader {
	for _, rule := range rules {
		if rule.From == "" || rule.From == rule.To {
			continue
		}
		r = &rewriter{
			r:     r,
			pat:   []byte(rule.From),
			repl:  []byte(rule.To),
			chunk: make([]byte, rewriteChunk),
		}
	}
	return r
}

func (w *rewriter) Read(p []byte) (int, error) {
	for w.out.Len() == 0 {
		if w.err != nil {
			return 0, w.err
		}
		w.fill()
	}
	return w.out.Read(p)
}

// fill reads one chunk and emits every byte that can no longer start a match.
// The remainder is carried into the next call. Matches are searched in the
// raw input only, so replacement output is never rescanned.
func (w *rewriter) fill() {
	n, err := w.r.Read(w.chunk)
	raw := append(w.carry, w.chunk[:n]...)

	limit := len(raw)
	if err == nil {
		limit = max(0, len(raw)-(len(w.pat)-1))
	}

	i := 0
	for {
		j := bytes.Index(raw[i:], w.pat)
		if j < 0 || i+j >= limit {
			break
		}
		w.out.Write(raw[i : i+j])
		w.out.Write(w.repl)
		i += j + len(w.pat)
	}
	if i < limit {
		w.out.Write(raw[i:limit])
		i = limit
	}
	w.carry = append(w.carry[:0:0], raw[i:]...)
	w.err = err
}
