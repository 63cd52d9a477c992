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
	"time"

	"github.com/benbjohnson/clock"

	"github.com/clustermesh/fdetector/util"
)

// Options is a configuration struct passed to the New constructor.
type Options struct {
	// PingInterval is the protocol tick period. It also bounds the total
	// time budget of a round: the indirect probe gets whatever is left of it
	// after the direct probe times out.
	PingInterval time.Duration

	// PingTimeout is how long a direct probe waits for its ack.
	PingTimeout time.Duration

	// PingReqMembers is the maximum number of helpers recruited per indirect
	// probe. Zero disables indirect probing entirely; when Options are
	// passed explicitly the field is used verbatim, defaults apply only to
	// a nil Options.
	PingReqMembers int

	// VerdictBuffer is the capacity of each verdict subscription channel.
	VerdictBuffer int

	// Clock drives the protocol tick and the probe timers. Typically the
	// system clock; tests inject a mock.
	Clock clock.Clock
}

func defaultOptions() *Options {
	return &Options{
		PingInterval:   1000 * time.Millisecond,
		PingTimeout:    500 * time.Millisecond,
		PingReqMembers: 3,
		VerdictBuffer:  64,
		Clock:          clock.New(),
	}
}

func mergeDefaultOptions(opts *Options) *Options {
	def := defaultOptions()

	if opts == nil {
		return def
	}

	opts.PingInterval = util.SelectDuration(opts.PingInterval, def.PingInterval)
	opts.PingTimeout = util.SelectDuration(opts.PingTimeout, def.PingTimeout)
	opts.VerdictBuffer = util.SelectInt(opts.VerdictBuffer, def.VerdictBuffer)

	if opts.Clock == nil {
		opts.Clock = def.Clock
	}

	return opts
}
