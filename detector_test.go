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
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/clustermesh/fdetector/events"
	"github.com/clustermesh/fdetector/membership"
	"github.com/clustermesh/fdetector/transport"
)

type testPeer struct {
	member       membership.Member
	detector     *Detector
	transport    *transport.MemoryTransport
	membershipCh chan membership.Event
	started      bool
}

// DetectorTestSuite exercises probe rounds over an in-process network with a
// mock clock. Responder peers are not started; a pump goroutine feeds their
// handlers directly so no ticker other than the prober's is in play.
type DetectorTestSuite struct {
	suite.Suite

	network *transport.Network
	clock   *clock.Mock
	peers   []*testPeer
}

func (s *DetectorTestSuite) SetupTest() {
	s.network = transport.NewNetwork()
	s.clock = clock.NewMock()
	s.peers = nil
}

func (s *DetectorTestSuite) TearDownTest() {
	for _, p := range s.peers {
		if p.started {
			p.detector.Stop()
		}
		p.transport.Close()
	}
}

func (s *DetectorTestSuite) newPeer(name string, port int, opts *Options) *testPeer {
	if opts == nil {
		opts = &Options{PingReqMembers: 3}
	}
	opts.Clock = s.clock

	member := membership.Member{
		ID:      name,
		Address: fmt.Sprintf("127.0.0.1:%d", port),
	}
	tr := s.network.Join(member.Address)
	membershipCh := make(chan membership.Event, 16)
	p := &testPeer{
		member:       member,
		detector:     New(member, tr, membershipCh, opts),
		transport:    tr,
		membershipCh: membershipCh,
	}
	s.peers = append(s.peers, p)
	return p
}

// pump feeds inbound messages straight into the handler, standing in for the
// receive loop of an unstarted detector.
func (s *DetectorTestSuite) pump(p *testPeer) {
	go func() {
		for msg := range p.transport.Listen() {
			p.detector.handleMessage(msg)
		}
	}()
}

func (s *DetectorTestSuite) addToRoster(p *testPeer, members ...membership.Member) {
	for _, m := range members {
		p.detector.applyMembershipEvent(membership.MemberAdded(m))
	}
}

func (s *DetectorTestSuite) waitVerdict(ch <-chan Verdict) Verdict {
	select {
	case v, ok := <-ch:
		s.Require().True(ok, "verdict channel closed unexpectedly")
		return v
	case <-time.After(5 * time.Second):
		s.Require().FailNow("timed out waiting for verdict")
		return Verdict{}
	}
}

func hasIndirectProbe(d *Detector) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.mu.pending {
		if p.stage == stageIndirect {
			return true
		}
	}
	return false
}

func (s *DetectorTestSuite) TestDirectProbeAlive() {
	a := s.newPeer("a", 3000, nil)
	b := s.newPeer("b", 3001, nil)
	s.pump(a)
	s.pump(b)
	s.addToRoster(a, b.member)

	verdicts := a.detector.Listen()
	a.detector.probeMember(b.member)

	v := s.waitVerdict(verdicts)
	s.Equal(b.member, v.Member)
	s.Equal(Alive, v.Status)
	s.Equal(0, a.detector.pendingCount())
}

func (s *DetectorTestSuite) TestIndirectProbeAlive() {
	a := s.newPeer("a", 3000, nil)
	b := s.newPeer("b", 3001, nil)
	c := s.newPeer("c", 3002, nil)
	s.pump(a)
	s.pump(b)
	s.pump(c)
	s.addToRoster(a, b.member, c.member)

	verdicts := a.detector.Listen()

	// The direct ping is lost; the relayed one gets through.
	s.network.Blackhole(c.member.Address)
	a.detector.probeMember(c.member)
	s.network.Restore(c.member.Address)

	s.clock.Add(a.detector.pingTimeout)

	v := s.waitVerdict(verdicts)
	s.Equal(c.member, v.Member)
	s.Equal(Alive, v.Status)
}

func (s *DetectorTestSuite) TestUnreachableMemberSuspect() {
	a := s.newPeer("a", 3000, nil)
	b := s.newPeer("b", 3001, nil)
	c := s.newPeer("c", 3002, nil)
	s.pump(a)
	s.pump(b)
	s.pump(c)
	s.addToRoster(a, b.member, c.member)

	verdicts := a.detector.Listen()

	s.network.Blackhole(c.member.Address)
	a.detector.probeMember(c.member)

	s.clock.Add(a.detector.pingTimeout)
	s.Require().Eventually(func() bool {
		return hasIndirectProbe(a.detector)
	}, 5*time.Second, time.Millisecond, "expected escalation to the indirect stage")

	s.clock.Add(a.detector.pingInterval - a.detector.pingTimeout)

	v := s.waitVerdict(verdicts)
	s.Equal(c.member, v.Member)
	s.Equal(Suspect, v.Status)
	s.Equal(0, a.detector.pendingCount())
}

func (s *DetectorTestSuite) TestNoHelpersImmediateSuspect() {
	a := s.newPeer("a", 3000, nil)
	c := s.newPeer("c", 3002, nil)
	s.pump(a)
	s.addToRoster(a, c.member)

	verdicts := a.detector.Listen()

	s.network.Blackhole(c.member.Address)
	a.detector.probeMember(c.member)
	s.clock.Add(a.detector.pingTimeout)

	v := s.waitVerdict(verdicts)
	s.Equal(c.member, v.Member)
	s.Equal(Suspect, v.Status)
}

func (s *DetectorTestSuite) TestIndirectProbingDisabled() {
	a := s.newPeer("a", 3000, &Options{PingReqMembers: 0})
	b := s.newPeer("b", 3001, nil)
	c := s.newPeer("c", 3002, nil)
	s.pump(a)
	s.pump(b)
	s.addToRoster(a, b.member, c.member)

	verdicts := a.detector.Listen()

	s.network.Blackhole(c.member.Address)
	a.detector.probeMember(c.member)
	s.clock.Add(a.detector.pingTimeout)

	// Helpers exist but the fanout is zero, so the timeout is terminal.
	v := s.waitVerdict(verdicts)
	s.Equal(Suspect, v.Status)
}

func (s *DetectorTestSuite) TestNoBudgetImmediateSuspect() {
	a := s.newPeer("a", 3000, &Options{
		PingInterval:   500 * time.Millisecond,
		PingTimeout:    500 * time.Millisecond,
		PingReqMembers: 3,
	})
	b := s.newPeer("b", 3001, nil)
	c := s.newPeer("c", 3002, nil)
	s.pump(a)
	s.pump(b)
	s.addToRoster(a, b.member, c.member)

	verdicts := a.detector.Listen()

	s.network.Blackhole(c.member.Address)
	a.detector.probeMember(c.member)
	s.clock.Add(500 * time.Millisecond)

	// The direct timeout consumed the whole round; nothing is left for the
	// indirect stage.
	v := s.waitVerdict(verdicts)
	s.Equal(Suspect, v.Status)
}

func (s *DetectorTestSuite) TestEmptyRosterRoundIsNoop() {
	a := s.newPeer("a", 3000, nil)

	a.detector.probeRound()
	s.Equal(0, a.detector.pendingCount())
}

func (s *DetectorTestSuite) TestProtocolTickDrivesProbes() {
	a := s.newPeer("a", 3000, nil)
	b := s.newPeer("b", 3001, nil)
	s.pump(b)

	frequencies := make(chan ProtocolFrequencyEvent, 16)
	a.detector.RegisterListener(events.ListenerFunc(func(e events.Event) {
		if fe, ok := e.(ProtocolFrequencyEvent); ok {
			select {
			case frequencies <- fe:
			default:
			}
		}
	}))

	verdicts := a.detector.Listen()
	s.addToRoster(a, b.member)

	a.detector.Start()
	a.started = true

	s.clock.Add(a.detector.pingInterval)

	v := s.waitVerdict(verdicts)
	s.Equal(b.member, v.Member)
	s.Equal(Alive, v.Status)

	select {
	case fe := <-frequencies:
		s.Equal(a.detector.pingInterval, fe.Duration)
	case <-time.After(5 * time.Second):
		s.FailNow("expected a protocol frequency event")
	}
}

func (s *DetectorTestSuite) TestMembershipEventsFeedRoster() {
	a := s.newPeer("a", 3000, nil)
	b := s.newPeer("b", 3001, nil)
	c := s.newPeer("c", 3002, nil)

	checksums := make(chan uint32, 16)
	a.detector.RegisterListener(events.ListenerFunc(func(e events.Event) {
		if ce, ok := e.(ChecksumComputeEvent); ok {
			select {
			case checksums <- ce.Checksum:
			default:
			}
		}
	}))

	a.detector.applyMembershipEvent(membership.MemberAdded(a.member))
	s.Equal(0, a.detector.roster.NumMembers(), "local member never joins the roster")

	a.detector.applyMembershipEvent(membership.MemberAdded(b.member))
	a.detector.applyMembershipEvent(membership.MemberAdded(c.member))
	s.Equal(2, a.detector.roster.NumMembers())
	s.Len(checksums, 2)

	moved := membership.Member{ID: c.member.ID, Address: "10.0.0.9:4000"}
	a.detector.applyMembershipEvent(membership.MemberUpdated(c.member, moved))
	s.Contains(a.detector.roster.Members(), moved)

	a.detector.applyMembershipEvent(membership.MemberRemoved(b.member))
	s.Equal(1, a.detector.roster.NumMembers())
}

func (s *DetectorTestSuite) TestStartedDetectorDrainsMembershipChannel() {
	memberCh := make(chan membership.Event, 16)

	member := membership.Member{ID: "a", Address: "127.0.0.1:3000"}
	tr := s.network.Join(member.Address)
	d := New(member, tr, memberCh, &Options{PingReqMembers: 3, Clock: s.clock})
	p := &testPeer{member: member, detector: d, transport: tr, started: true}
	s.peers = append(s.peers, p)

	d.Start()

	other := membership.Member{ID: "b", Address: "127.0.0.1:3001"}
	memberCh <- membership.MemberAdded(member) // filtered, local
	memberCh <- membership.MemberAdded(other)

	s.Require().Eventually(func() bool {
		return d.roster.NumMembers() == 1
	}, 5*time.Second, time.Millisecond)
	s.Contains(d.roster.Members(), other)
}

func (s *DetectorTestSuite) TestStartStopLifecycle() {
	a := s.newPeer("a", 3000, nil)

	s.False(a.detector.Running())

	a.detector.Start()
	s.True(a.detector.Running())

	a.detector.Start()
	s.True(a.detector.Running(), "double start must be a no-op")

	verdicts := a.detector.Listen()
	a.detector.Stop()
	s.False(a.detector.Running())

	_, open := <-verdicts
	s.False(open, "stop must close verdict subscriptions")

	a.detector.Stop()
	s.False(a.detector.Running(), "double stop must be a no-op")

	a.detector.Start()
	s.False(a.detector.Running(), "a stopped detector cannot be restarted")
}

func (s *DetectorTestSuite) TestStopCancelsPendingProbes() {
	a := s.newPeer("a", 3000, nil)
	c := s.newPeer("c", 3002, nil)
	s.addToRoster(a, c.member)

	a.detector.Start()

	verdicts := a.detector.Listen()

	s.network.Blackhole(c.member.Address)
	a.detector.probeMember(c.member)
	s.Equal(1, a.detector.pendingCount())

	a.detector.Stop()
	s.Equal(0, a.detector.pendingCount())

	// The probe timer was cancelled; advancing time yields nothing.
	s.clock.Add(a.detector.pingInterval)

	v, open := <-verdicts
	s.False(open, "expected no verdict after stop, got %+v", v)
}

func TestDetectorTestSuite(t *testing.T) {
	suite.Run(t, new(DetectorTestSuite))
}
