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

	"github.com/clustermesh/fdetector/membership"
)

// A PingSendEvent is emitted when a direct probe is sent to a member.
type PingSendEvent struct {
	Local         membership.Member `json:"local"`
	Remote        membership.Member `json:"remote"`
	CorrelationID string            `json:"correlationId"`
}

// A PingReceiveEvent is emitted when a ping addressed to the local member
// arrives.
type PingReceiveEvent struct {
	Local         membership.Member `json:"local"`
	Source        membership.Member `json:"source"`
	CorrelationID string            `json:"correlationId"`
}

// A PingRequestsSendEvent is emitted when helpers are recruited to probe a
// member indirectly.
type PingRequestsSendEvent struct {
	Local         membership.Member   `json:"local"`
	Target        membership.Member   `json:"target"`
	Peers         []membership.Member `json:"peers"`
	CorrelationID string              `json:"correlationId"`
}

// A PingRequestReceiveEvent is emitted when the local member is recruited as
// a helper.
type PingRequestReceiveEvent struct {
	Local         membership.Member `json:"local"`
	Source        membership.Member `json:"source"`
	Target        membership.Member `json:"target"`
	CorrelationID string            `json:"correlationId"`
}

// A TransitAckRelayEvent is emitted when the local member converts a transit
// ack into a plain ack and forwards it to the original issuer.
type TransitAckRelayEvent struct {
	Local         membership.Member `json:"local"`
	Issuer        membership.Member `json:"issuer"`
	Target        membership.Member `json:"target"`
	CorrelationID string            `json:"correlationId"`
}

// A ProtocolFrequencyEvent carries the observed time between consecutive
// protocol ticks.
type ProtocolFrequencyEvent struct {
	Duration time.Duration `json:"duration"`
}

// A ChecksumComputeEvent carries the roster fingerprint recomputed after a
// membership change.
type ChecksumComputeEvent struct {
	Checksum uint32 `json:"checksum"`
}
