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

package transport

import (
	"sync"
	"time"

	log "github.com/uber-common/bark"
	tjson "github.com/uber/tchannel-go/json"
	"golang.org/x/net/context"

	"github.com/clustermesh/fdetector/logging"
	"github.com/clustermesh/fdetector/shared"
)

// messageEndpoint is the single endpoint every peer registers; the message
// qualifier, not the endpoint, selects the handler on the receiving side.
const messageEndpoint = "/fdetector/message"

type emptyArg struct{}

// ChannelTransport carries the message envelope over TChannel JSON calls.
// A send is a call with an empty response, so delivery stays one-way from
// the protocol's point of view; the response only means the peer accepted
// the bytes.
type ChannelTransport struct {
	channel     shared.SubChannel
	address     string
	service     string
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	inbox  chan Message

	logger log.Logger
}

// NewChannelTransport registers the message endpoint on ch and returns the
// transport bound to the given local address.
func NewChannelTransport(ch shared.SubChannel, address string, sendTimeout time.Duration) (*ChannelTransport, error) {
	t := &ChannelTransport{
		channel:     ch,
		address:     address,
		service:     ch.ServiceName(),
		sendTimeout: sendTimeout,
		inbox:       make(chan Message, inboxSize),
		logger:      logging.Logger("transport").WithField("local", address),
	}

	handlers := map[string]interface{}{
		messageEndpoint: t.handleMessage,
	}
	err := tjson.Register(ch, handlers, func(ctx context.Context, err error) {
		t.logger.WithField("error", err).Info("tchannel handler error")
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Address returns the address this transport is bound to.
func (t *ChannelTransport) Address() string {
	return t.address
}

func (t *ChannelTransport) handleMessage(ctx tjson.Context, msg *Message) (*emptyArg, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return &emptyArg{}, nil
	}
	select {
	case t.inbox <- *msg:
	default:
		t.logger.WithField("qualifier", msg.Qualifier).Warn("inbox full, dropping message")
	}
	return &emptyArg{}, nil
}

// Send stamps the message with the local address and calls the peer's
// message endpoint.
func (t *ChannelTransport) Send(address string, msg Message) error {
	msg.Sender = t.address

	ctx, cancel := shared.NewTChannelContext(t.sendTimeout)
	defer cancel()

	peer := t.channel.Peers().GetOrAdd(address)

	var res emptyArg
	return tjson.CallPeer(ctx, peer, t.service, messageEndpoint, msg, &res)
}

// Listen returns the inbound message stream.
func (t *ChannelTransport) Listen() <-chan Message {
	return t.inbox
}

// Close closes the inbox. The owning channel's lifecycle belongs to the
// caller.
func (t *ChannelTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.inbox)
	}
	return nil
}
