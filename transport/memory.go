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
	"fmt"
	"sync"
)

const inboxSize = 64

// A Network is an in-process message fabric. Every joined address gets an
// inbox; sends between joined addresses are delivered directly. Addresses
// can be blackholed to simulate packet loss without a send error.
type Network struct {
	mu         sync.RWMutex
	endpoints  map[string]*MemoryTransport
	blackholed map[string]bool
}

// NewNetwork creates an empty in-process network.
func NewNetwork() *Network {
	return &Network{
		endpoints:  make(map[string]*MemoryTransport),
		blackholed: make(map[string]bool),
	}
}

// Join binds address to a new inbox and returns the transport for it.
func (n *Network) Join(address string) *MemoryTransport {
	t := &MemoryTransport{
		network: n,
		address: address,
		inbox:   make(chan Message, inboxSize),
	}

	n.mu.Lock()
	n.endpoints[address] = t
	n.mu.Unlock()

	return t
}

// Blackhole silently drops all traffic to address. Sends still succeed, the
// messages just never arrive, the way a dead host looks to UDP.
func (n *Network) Blackhole(address string) {
	n.mu.Lock()
	n.blackholed[address] = true
	n.mu.Unlock()
}

// Restore lifts a blackhole from address.
func (n *Network) Restore(address string) {
	n.mu.Lock()
	delete(n.blackholed, address)
	n.mu.Unlock()
}

func (n *Network) deliver(address string, msg Message) error {
	n.mu.RLock()
	endpoint, ok := n.endpoints[address]
	dropped := n.blackholed[address]
	n.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no route to %s", address)
	}
	if dropped {
		return nil
	}

	endpoint.push(msg)
	return nil
}

func (n *Network) leave(address string) {
	n.mu.Lock()
	delete(n.endpoints, address)
	n.mu.Unlock()
}

// MemoryTransport is one endpoint of a Network.
type MemoryTransport struct {
	network *Network
	address string

	mu     sync.RWMutex
	closed bool
	inbox  chan Message
}

// Address returns the address this transport is bound to.
func (t *MemoryTransport) Address() string {
	return t.address
}

func (t *MemoryTransport) push(msg Message) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return
	}
	select {
	case t.inbox <- msg:
	default:
		// Receiver is not draining; an unreliable network drops.
	}
}

// Send stamps the message with the local address and delivers it.
func (t *MemoryTransport) Send(address string, msg Message) error {
	msg.Sender = t.address
	return t.network.deliver(address, msg)
}

// Listen returns the inbound message stream.
func (t *MemoryTransport) Listen() <-chan Message {
	return t.inbox
}

// Close detaches the endpoint from the network and closes the inbox.
func (t *MemoryTransport) Close() error {
	t.network.leave(t.address)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.inbox)
	}
	return nil
}
