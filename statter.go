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
	"strings"
	"sync"

	"github.com/uber-common/bark"

	"github.com/clustermesh/fdetector/events"
)

// A Statter forwards detector events to a bark.StatsReporter under a
// per-node prefix derived from the local address.
type Statter struct {
	reporter bark.StatsReporter
	prefix   string

	mutex sync.RWMutex
	keys  map[string]string
}

// NewStatter builds a Statter and registers it on the given emitters.
func NewStatter(address string, reporter bark.StatsReporter, emitters ...events.EventRegistrar) *Statter {
	s := &Statter{
		reporter: reporter,
		prefix:   toStatsPrefix(address),
		keys:     make(map[string]string),
	}

	for _, emitter := range emitters {
		emitter.RegisterListener(s)
	}

	return s
}

// HandleEvent satisfies events.EventListener.
func (s *Statter) HandleEvent(event events.Event) {
	switch event := event.(type) {
	case PingSendEvent:
		s.reporter.IncCounter(s.key("ping.send"), nil, 1)

	case PingReceiveEvent:
		s.reporter.IncCounter(s.key("ping.recv"), nil, 1)

	case PingRequestsSendEvent:
		s.reporter.IncCounter(s.key("ping-req.send"), nil, int64(len(event.Peers)))

	case PingRequestReceiveEvent:
		s.reporter.IncCounter(s.key("ping-req.recv"), nil, 1)

	case TransitAckRelayEvent:
		s.reporter.IncCounter(s.key("ping-req.relay-ack"), nil, 1)

	case ProtocolFrequencyEvent:
		s.reporter.RecordTimer(s.key("protocol.frequency"), nil, event.Duration)

	case ChecksumComputeEvent:
		s.reporter.UpdateGauge(s.key("checksum"), nil, int64(event.Checksum))

	case Verdict:
		s.reporter.IncCounter(s.key("verdict."+string(event.Status)), nil, 1)
	}
}

func (s *Statter) key(suffix string) string {
	s.mutex.RLock()
	key, ok := s.keys[suffix]
	s.mutex.RUnlock()

	if !ok {
		s.mutex.Lock()
		key, ok = s.keys[suffix]
		if !ok {
			key = s.prefix + suffix
			s.keys[suffix] = key
		}
		s.mutex.Unlock()
	}

	return key
}

// toStatsPrefix turns an address into a stats-compatible prefix, for example
// 192.168.0.12:3000 into fdetector.192_168_0_12_3000.
func toStatsPrefix(address string) string {
	prefix := strings.Replace(address, ".", "_", -1)
	prefix = strings.Replace(prefix, ":", "_", -1)
	return "fdetector." + prefix + "."
}
