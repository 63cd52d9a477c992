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

// Package transport defines the message envelope and the one-way messaging
// boundary the failure detector speaks over. Implementations own all network
// resources; the protocol core never touches a socket.
package transport

import (
	"encoding/json"
)

// A Message is the qualifier-tagged envelope exchanged between peers. The
// payload is an opaque JSON document whose schema belongs to the protocol
// that owns the qualifier. The correlation id is generated by the initiator
// of an exchange and echoed unchanged by every reply and relay hop.
type Message struct {
	Qualifier     string          `json:"qualifier"`
	CorrelationID string          `json:"correlationId"`
	Sender        string          `json:"sender,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Transport delivers messages between addressed peers. Send reports
// socket-level failures to the caller and says nothing about delivery; the
// network is assumed unreliable. Listen returns the inbound message stream;
// the channel is closed by Close.
type Transport interface {
	Send(address string, msg Message) error
	Listen() <-chan Message
	Close() error
}
