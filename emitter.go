// Copyright (c) 2015 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package fdetector

import (
	"sync"

	log "github.com/uber-common/bark"
)

// verdictEmitter fans verdicts out to subscribers over bounded channels.
// Publishing never blocks: a subscriber whose buffer is full misses the
// verdict. After Close every publish is a silent no-op, so probe timers
// that outlive Stop fire harmlessly.
type verdictEmitter struct {
	mu     sync.Mutex
	subs   []chan Verdict
	closed bool

	logger log.Logger
}

func newVerdictEmitter(logger log.Logger) *verdictEmitter {
	return &verdictEmitter{logger: logger}
}

// Subscribe registers a new subscriber with the given buffer capacity. A
// subscription taken after Close is already closed.
func (e *verdictEmitter) Subscribe(buffer int) <-chan Verdict {
	ch := make(chan Verdict, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Publish offers the verdict to every subscriber, dropping it for the ones
// that are not keeping up.
func (e *verdictEmitter) Publish(v Verdict) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	for _, ch := range e.subs {
		select {
		case ch <- v:
		default:
			e.logger.WithFields(log.Fields{
				"member": v.Member.String(),
				"status": v.Status,
			}).Warn("dropping verdict, subscriber not keeping up")
		}
	}
}

// Close closes every subscription and disables further publishing.
func (e *verdictEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}
