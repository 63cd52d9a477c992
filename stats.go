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
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/clustermesh/fdetector/membership"
)

// ProtocolStats aggregates protocol timings and verdict rates.
type ProtocolStats struct {
	sync.RWMutex
	frequency metrics.Histogram
	probeRTT  metrics.Histogram
	alive     metrics.Meter
	suspect   metrics.Meter
}

func newProtocolStats() *ProtocolStats {
	return &ProtocolStats{
		frequency: metrics.NewHistogram(metrics.NewUniformSample(10)),
		probeRTT:  metrics.NewHistogram(metrics.NewUniformSample(10)),
		alive:     metrics.NewMeter(),
		suspect:   metrics.NewMeter(),
	}
}

func (s *ProtocolStats) observeFrequency(elapsed time.Duration) {
	s.Lock()
	s.frequency.Update(int64(elapsed))
	s.Unlock()
}

func (s *ProtocolStats) observeProbe(status Status, elapsed time.Duration) {
	s.Lock()
	defer s.Unlock()

	switch status {
	case Alive:
		s.probeRTT.Update(int64(elapsed))
		s.alive.Mark(1)
	case Suspect:
		s.suspect.Mark(1)
	}
}

// ProtocolTiming returns the histogram of observed protocol tick intervals.
func (s *ProtocolStats) ProtocolTiming() metrics.Histogram {
	s.RLock()
	defer s.RUnlock()

	return s.frequency
}

// Stats is a point-in-time snapshot of detector counters, suitable for a
// debug endpoint or a periodic dump.
type Stats struct {
	Protocol ProtocolTimingStats `json:"protocol"`
	Members  MemberStats         `json:"members"`
}

// ProtocolTimingStats summarizes the protocol's observed cadence and probe
// round trips, in nanoseconds.
type ProtocolTimingStats struct {
	FrequencyMean float64 `json:"frequencyMean"`
	ProbeRTTMean  float64 `json:"probeRttMean"`
	AliveRate     float64 `json:"aliveRate"`
	SuspectRate   float64 `json:"suspectRate"`
}

// MemberStats is the roster's membership and its order-insensitive
// fingerprint.
type MemberStats struct {
	Checksum uint32              `json:"checksum"`
	Members  []membership.Member `json:"members"`
}

func (s *ProtocolStats) snapshot(r *roster) Stats {
	s.RLock()
	timing := ProtocolTimingStats{
		FrequencyMean: s.frequency.Mean(),
		ProbeRTTMean:  s.probeRTT.Mean(),
		AliveRate:     s.alive.Rate1(),
		SuspectRate:   s.suspect.Rate1(),
	}
	s.RUnlock()

	return Stats{
		Protocol: timing,
		Members: MemberStats{
			Checksum: r.Checksum(),
			Members:  r.Members(),
		},
	}
}
