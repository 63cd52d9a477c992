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
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/clustermesh/fdetector/membership"
	"github.com/clustermesh/fdetector/transport"
)

// HandlersTestSuite drives handleMessage directly against an unstarted
// detector, observing its replies on raw network endpoints.
type HandlersTestSuite struct {
	suite.Suite

	network *transport.Network

	local   membership.Member
	peer    membership.Member
	target  membership.Member
	stale   membership.Member

	detector  *Detector
	peerBox   *transport.MemoryTransport
	targetBox *transport.MemoryTransport
}

func (s *HandlersTestSuite) SetupTest() {
	s.network = transport.NewNetwork()

	s.local = membership.Member{ID: "local", Address: "127.0.0.1:3000"}
	s.peer = membership.Member{ID: "peer", Address: "127.0.0.1:3001"}
	s.target = membership.Member{ID: "target", Address: "127.0.0.1:3002"}
	s.stale = membership.Member{ID: "stale", Address: "127.0.0.1:3003"}

	s.detector = New(s.local, s.network.Join(s.local.Address), nil, nil)
	s.peerBox = s.network.Join(s.peer.Address)
	s.targetBox = s.network.Join(s.target.Address)
}

func (s *HandlersTestSuite) TearDownTest() {
	s.peerBox.Close()
	s.targetBox.Close()
}

// inboundMessage builds the wire form of a protocol message as a remote peer
// would have produced it.
func (s *HandlersTestSuite) inboundMessage(qualifier, cid string, data PingData) transport.Message {
	msg, err := newMessage(qualifier, cid, data)
	s.Require().NoError(err)
	msg.Sender = data.From.Address
	return msg
}

func (s *HandlersTestSuite) receivedData(box *transport.MemoryTransport) (transport.Message, PingData) {
	select {
	case msg := <-box.Listen():
		data, err := decodePingData(msg)
		s.Require().NoError(err)
		return msg, data
	default:
		s.Require().FailNow("expected a message")
		return transport.Message{}, PingData{}
	}
}

func (s *HandlersTestSuite) assertNoMessage(box *transport.MemoryTransport) {
	select {
	case msg := <-box.Listen():
		s.Require().FailNow("expected no message, got one", "%+v", msg)
	default:
	}
}

func (s *HandlersTestSuite) TestPingEchoesAck() {
	ping := s.inboundMessage(PingQualifier, "peer-1", PingData{
		From: s.peer,
		To:   s.local,
	})

	s.detector.handleMessage(ping)

	msg, data := s.receivedData(s.peerBox)
	s.Equal(AckQualifier, msg.Qualifier)
	s.Equal("peer-1", msg.CorrelationID)
	s.Equal(s.peer, data.From, "ack echoes the ping payload")
	s.Equal(s.local, data.To)
	s.Equal(DirectAck, data.Kind())
}

func (s *HandlersTestSuite) TestPingWrongAddresseeDropped() {
	ping := s.inboundMessage(PingQualifier, "peer-2", PingData{
		From: s.peer,
		To:   s.stale,
	})

	s.detector.handleMessage(ping)

	s.assertNoMessage(s.peerBox)
}

func (s *HandlersTestSuite) TestTransitPingEchoesTransitAck() {
	issuer := s.target
	ping := s.inboundMessage(PingQualifier, "target-3", PingData{
		From:           s.peer,
		To:             s.local,
		OriginalIssuer: &issuer,
	})

	s.detector.handleMessage(ping)

	msg, data := s.receivedData(s.peerBox)
	s.Equal(AckQualifier, msg.Qualifier)
	s.Equal("target-3", msg.CorrelationID)
	s.Equal(TransitAck, data.Kind(), "echo must preserve the transit marker")
	s.Require().NotNil(data.OriginalIssuer)
	s.Equal(issuer, *data.OriginalIssuer)
}

func (s *HandlersTestSuite) TestPingRequestRelaysTransitPing() {
	req := s.inboundMessage(PingReqQualifier, "peer-4", PingData{
		From: s.peer,
		To:   s.target,
	})

	s.detector.handleMessage(req)

	msg, data := s.receivedData(s.targetBox)
	s.Equal(PingQualifier, msg.Qualifier)
	s.Equal("peer-4", msg.CorrelationID, "relay must not touch the correlation id")
	s.Equal(s.local, data.From, "relayed ping is sent as the helper")
	s.Equal(s.target, data.To)
	s.Require().NotNil(data.OriginalIssuer)
	s.Equal(s.peer, *data.OriginalIssuer)
}

func (s *HandlersTestSuite) TestTransitAckForwardedToIssuer() {
	issuer := s.peer
	ack := s.inboundMessage(AckQualifier, "peer-5", PingData{
		From:           s.local,
		To:             s.target,
		OriginalIssuer: &issuer,
	})

	s.detector.handleMessage(ack)

	msg, data := s.receivedData(s.peerBox)
	s.Equal(AckQualifier, msg.Qualifier)
	s.Equal("peer-5", msg.CorrelationID)
	s.Equal(DirectAck, data.Kind(), "forwarded ack must read as a direct ack")
	s.Equal(s.peer, data.From)
	s.Equal(s.target, data.To)
}

func (s *HandlersTestSuite) TestDirectAckResolvesPendingProbe() {
	verdicts := s.detector.Listen()

	s.detector.probeMember(s.peer)
	s.Equal(1, s.detector.pendingCount())

	msg, data := s.receivedData(s.peerBox)
	s.Equal(PingQualifier, msg.Qualifier)

	s.detector.handleMessage(s.inboundMessage(AckQualifier, msg.CorrelationID, data))

	s.Equal(0, s.detector.pendingCount())
	select {
	case v := <-verdicts:
		s.Equal(s.peer, v.Member)
		s.Equal(Alive, v.Status)
	default:
		s.FailNow("expected an alive verdict")
	}

	// A duplicate ack finds no pending probe and changes nothing.
	s.detector.handleMessage(s.inboundMessage(AckQualifier, msg.CorrelationID, data))
	select {
	case v := <-verdicts:
		s.FailNow("unexpected verdict", "%+v", v)
	default:
	}
}

func (s *HandlersTestSuite) TestLateAckIgnored() {
	ack := s.inboundMessage(AckQualifier, "local-99", PingData{
		From: s.peer,
		To:   s.local,
	})
	s.detector.handleMessage(ack)
	s.Equal(0, s.detector.pendingCount())
}

func (s *HandlersTestSuite) TestUnknownQualifierDropped() {
	msg := s.inboundMessage("sc/gossip/sync", "peer-6", PingData{
		From: s.peer,
		To:   s.local,
	})
	s.detector.handleMessage(msg)
	s.assertNoMessage(s.peerBox)
}

func (s *HandlersTestSuite) TestMalformedPayloadDropped() {
	s.detector.handleMessage(transport.Message{
		Qualifier:     PingQualifier,
		CorrelationID: "peer-7",
		Sender:        s.peer.Address,
		Payload:       []byte("{broken"),
	})
	s.assertNoMessage(s.peerBox)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
