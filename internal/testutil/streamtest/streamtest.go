// Package streamtest provides an ordered-expectation fake for write+flush
// streams.
package streamtest

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"testing"
)

type OpKind uint8

const (
	OpWrite OpKind = iota + 1
	OpFlush
)

// Op is one observed call on a Recorder.
type Op struct {
	Kind OpKind
	Data []byte
}

func (o Op) String() string {
	if o.Kind == OpFlush {
		return "flush()"
	}
	return fmt.Sprintf("write(% x)", o.Data)
}

// W builds an expected write op.
func W(b ...byte) Op {
	return Op{Kind: OpWrite, Data: b}
}

// F builds an expected flush op.
func F() Op {
	return Op{Kind: OpFlush}
}

// Recorder records writes and flushes in call order. FailAt (1-based, counted
// over writes and flushes together) makes that call return Err without being
// recorded; PanicAt does the same with a panic. Yield makes every call give up
// the processor first, which widens interleaving windows in concurrency tests.
type Recorder struct {
	FailAt  int
	PanicAt int
	Err     error
	Yield   bool

	mu    sync.Mutex
	calls int
	ops   []Op
}

func (r *Recorder) Write(p []byte) (int, error) {
	if err := r.step(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpWrite, Data: bytes.Clone(p)})
	r.mu.Unlock()
	return len(p), nil
}

func (r *Recorder) Flush() error {
	if err := r.step(); err != nil {
		return err
	}
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpFlush})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) step() error {
	if r.Yield {
		runtime.Gosched()
	}
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.mu.Unlock()
	if r.PanicAt > 0 && n == r.PanicAt {
		panic(fmt.Sprintf("streamtest: injected panic at call %d", n))
	}
	if r.FailAt > 0 && n == r.FailAt {
		return r.Err
	}
	return nil
}

// Ops returns a snapshot of recorded ops.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Bytes concatenates every recorded write.
func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	var buf bytes.Buffer
	for _, op := range r.ops {
		if op.Kind == OpWrite {
			buf.Write(op.Data)
		}
	}
	return buf.Bytes()
}

// Expect fails t unless got matches want op for op.
func Expect(t testing.TB, got []Op, want []Op) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("op count mismatch: got=%d want=%d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || !bytes.Equal(got[i].Data, want[i].Data) {
			t.Fatalf("op %d mismatch: got=%v want=%v", i, got[i], want[i])
		}
	}
}
