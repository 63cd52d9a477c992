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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uber/tchannel-go"
)

type channelEndpoint struct {
	channel   *tchannel.Channel
	transport *ChannelTransport
}

func (e *channelEndpoint) destroy() {
	e.transport.Close()
	e.channel.Close()
}

// newChannelEndpoint binds a transport to a channel listening on an OS
// assigned port.
func newChannelEndpoint(t *testing.T) *channelEndpoint {
	ch, err := tchannel.NewChannel("test", nil)
	require.NoError(t, err, "channel must create successfully")

	err = ch.ListenAndServe("127.0.0.1:0")
	require.NoError(t, err, "channel must listen")

	hostport := ch.PeerInfo().HostPort
	transport, err := NewChannelTransport(ch.GetSubChannel("test"), hostport, 2*time.Second)
	require.NoError(t, err, "transport must register")

	return &channelEndpoint{channel: ch, transport: transport}
}

func TestChannelTransportRoundTrip(t *testing.T) {
	a := newChannelEndpoint(t)
	defer a.destroy()
	b := newChannelEndpoint(t)
	defer b.destroy()

	payload, err := json.Marshal(map[string]string{"hello": "world"})
	require.NoError(t, err)

	err = a.transport.Send(b.transport.Address(), Message{
		Qualifier:     "test/hello",
		CorrelationID: "a-1",
		Payload:       payload,
	})
	require.NoError(t, err)

	select {
	case msg := <-b.transport.Listen():
		require.Equal(t, "test/hello", msg.Qualifier)
		require.Equal(t, "a-1", msg.CorrelationID)
		require.Equal(t, a.transport.Address(), msg.Sender)
		require.JSONEq(t, string(payload), string(msg.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelTransportSendToDeadPeer(t *testing.T) {
	a := newChannelEndpoint(t)
	defer a.destroy()

	err := a.transport.Send("127.0.0.1:1", Message{Qualifier: "test/hello"})
	require.Error(t, err, "sending to a dead peer must surface a transport error")
}
