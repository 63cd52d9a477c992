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

// Package events defines the listener plumbing used to observe the failure
// detector's protocol activity.
package events

import (
	"sync"
)

// Event is an empty interface that is type switched when handled.
type Event interface{}

// An EventListener handles events emitted by the failure detector.
// HandleEvent should be thread safe. Listeners are invoked synchronously; be
// careful with blocking and other slow calls.
type EventListener interface {
	HandleEvent(Event)
}

// The ListenerFunc type is an adapter to allow the use of ordinary functions
// as EventListeners.
type ListenerFunc func(Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) {
	f(e)
}

// EventEmitter describes an interface that can be used to emit events.
type EventEmitter interface {
	EmitEvent(Event)
}

// EventRegistrar is an object that EventListeners can be registered on.
type EventRegistrar interface {
	RegisterListener(EventListener)
}

// A Registry is an embeddable listener collection with synchronous fan-out.
type Registry struct {
	mu        sync.RWMutex
	listeners []EventListener
}

// RegisterListener adds a listener to the registry. Nil listeners and
// duplicates are ignored.
func (r *Registry) RegisterListener(l EventListener) {
	if l == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, listener := range r.listeners {
		if listener == l {
			return
		}
	}

	// Copy on write so EmitEvent can iterate a snapshot without holding the
	// lock while listeners run.
	listeners := make([]EventListener, 0, len(r.listeners)+1)
	listeners = append(listeners, r.listeners...)
	listeners = append(listeners, l)
	r.listeners = listeners
}

// EmitEvent invokes every registered listener with e, synchronously.
func (r *Registry) EmitEvent(e Event) {
	r.mu.RLock()
	listeners := r.listeners
	r.mu.RUnlock()

	for _, listener := range listeners {
		listener.HandleEvent(e)
	}
}
