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

// Package fdetector implements the failure-detection core of a SWIM-style
// cluster membership protocol: per-peer liveness verdicts produced by direct
// and indirect probing over an unreliable transport. The authoritative
// member list, gossip dissemination and DEAD escalation belong to the
// membership protocol that consumes the verdicts.
package fdetector

import (
	"github.com/clustermesh/fdetector/membership"
)

// Status is the liveness conclusion for a probed member. Escalation beyond
// Suspect is the membership layer's decision.
type Status string

const (
	// Alive is the status of a member that acknowledged a probe in time.
	Alive Status = "alive"

	// Suspect is the status of a member that answered neither the direct
	// probe nor any indirect probe within the round's budget.
	Suspect Status = "suspect"
)

// A Verdict is the per-round liveness conclusion for a probed member.
type Verdict struct {
	Member membership.Member `json:"member"`
	Status Status            `json:"status"`
}
