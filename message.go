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
	"encoding/json"

	"github.com/clustermesh/fdetector/membership"
	"github.com/clustermesh/fdetector/transport"
)

// Protocol message qualifiers. Both direct and relayed traffic share the
// ping and pingAck qualifiers; the payload's OriginalIssuer tells them
// apart.
const (
	PingQualifier    = "sc/fdetector/ping"
	PingReqQualifier = "sc/fdetector/pingReq"
	AckQualifier     = "sc/fdetector/pingAck"
)

// PingData is the payload carried by every protocol message. OriginalIssuer
// is set only on transit traffic: a relayed ping and the ack it produces.
// Acks are echoes of the ping payload they answer, so the marker survives
// the target untouched.
type PingData struct {
	From           membership.Member  `json:"from"`
	To             membership.Member  `json:"to"`
	OriginalIssuer *membership.Member `json:"originalIssuer,omitempty"`
}

// AckKind discriminates the two ack flavors that share the pingAck
// qualifier.
type AckKind int

const (
	// DirectAck is a terminal ack, consumed by the prober that issued the
	// correlation id.
	DirectAck AckKind = iota

	// TransitAck is an ack to a relayed ping; the receiving helper owes the
	// original issuer one more hop.
	TransitAck
)

// Kind classifies the ack flavor this payload would represent.
func (d PingData) Kind() AckKind {
	if d.OriginalIssuer != nil {
		return TransitAck
	}
	return DirectAck
}

// newMessage builds a protocol message envelope around a ping payload.
func newMessage(qualifier, correlationID string, data PingData) (transport.Message, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return transport.Message{}, err
	}
	return transport.Message{
		Qualifier:     qualifier,
		CorrelationID: correlationID,
		Payload:       payload,
	}, nil
}

// decodePingData extracts the ping payload from a protocol message.
func decodePingData(msg transport.Message) (PingData, error) {
	var data PingData
	err := json.Unmarshal(msg.Payload, &data)
	return data, err
}
