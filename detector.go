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
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/uber-common/bark"

	"github.com/clustermesh/fdetector/events"
	"github.com/clustermesh/fdetector/logging"
	"github.com/clustermesh/fdetector/membership"
	"github.com/clustermesh/fdetector/transport"
)

// probeStage is where a pending probe stands in the escalation ladder.
type probeStage int

const (
	stageDirect probeStage = iota
	stageIndirect
)

// A probe is one in-flight liveness check, keyed by its correlation id. The
// timer belongs to whichever stage is current and is re-armed on escalation.
type probe struct {
	target membership.Member
	stage  probeStage
	timer  *clock.Timer
	sent   time.Time
}

// A Detector probes one roster member per protocol tick and publishes an
// alive or suspect verdict for it. It consumes membership events to keep its
// roster current and speaks only through the supplied transport; it never
// decides DEAD and never edits membership itself.
type Detector struct {
	events.Registry

	local membership.Member

	transport     transport.Transport
	membershipCh  <-chan membership.Event
	roster        *roster
	emitter       *verdictEmitter
	stats         *ProtocolStats
	clock         clock.Clock
	pingInterval  time.Duration
	pingTimeout   time.Duration
	pingReqFanout int
	verdictBuffer int

	// mu guards the round counter and the pending probe table. Probe
	// resolution is first-wins: whoever deletes the entry owns the verdict.
	mu struct {
		sync.Mutex
		round   uint64
		pending map[string]*probe
	}

	state struct {
		sync.Mutex
		running bool
		stopped bool
		stopC   chan struct{}
		ticker  *clock.Ticker
		done    chan struct{}
	}

	logger log.Logger
}

// New creates a Detector for the given local member. Membership events
// arriving on membershipCh feed the roster; events naming the local member
// are ignored. Passing nil opts selects the defaults.
func New(local membership.Member, t transport.Transport, membershipCh <-chan membership.Event, opts *Options) *Detector {
	opts = mergeDefaultOptions(opts)

	logger := logging.Logger("fdetector").WithField("local", local.String())

	d := &Detector{
		local:         local,
		transport:     t,
		membershipCh:  membershipCh,
		roster:        newRoster(),
		emitter:       newVerdictEmitter(logger),
		stats:         newProtocolStats(),
		clock:         opts.Clock,
		pingInterval:  opts.PingInterval,
		pingTimeout:   opts.PingTimeout,
		pingReqFanout: opts.PingReqMembers,
		verdictBuffer: opts.VerdictBuffer,
		logger:        logger,
	}
	d.mu.pending = make(map[string]*probe)
	return d
}

// Start launches the protocol loop, the receive loop and the membership
// loop. Starting a running or stopped detector is a no-op.
func (d *Detector) Start() {
	d.state.Lock()
	defer d.state.Unlock()

	if d.state.stopped {
		d.logger.Warn("attempted to start a stopped failure detector")
		return
	}
	if d.state.running {
		d.logger.Warn("attempted to start failure detector twice")
		return
	}

	d.state.running = true
	d.state.stopC = make(chan struct{})
	d.state.done = make(chan struct{}, 3)
	d.state.ticker = d.clock.Ticker(d.pingInterval)

	go d.runProtocol(d.state.ticker, d.state.stopC)
	go d.runReceive(d.state.stopC)
	go d.runMembership(d.state.stopC)

	d.logger.Debug("failure detector started")
}

// Stop shuts the protocol down, cancels every in-flight probe without a
// verdict and closes all verdict subscriptions. A stopped detector cannot be
// restarted. Stopping twice is a no-op.
func (d *Detector) Stop() {
	d.state.Lock()
	if !d.state.running {
		if d.state.stopped {
			d.logger.Warn("attempted to stop failure detector twice")
		} else {
			d.logger.Warn("attempted to stop failure detector that was never started")
		}
		d.state.Unlock()
		return
	}
	d.state.running = false
	d.state.stopped = true
	d.state.ticker.Stop()
	close(d.state.stopC)
	done := d.state.done
	d.state.Unlock()

	for i := 0; i < 3; i++ {
		<-done
	}

	d.mu.Lock()
	for cid, p := range d.mu.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(d.mu.pending, cid)
	}
	d.mu.Unlock()

	d.emitter.Close()
	d.logger.Debug("failure detector stopped")
}

// Running reports whether the protocol loops are live.
func (d *Detector) Running() bool {
	d.state.Lock()
	defer d.state.Unlock()
	return d.state.running
}

// Listen returns a fresh verdict subscription. The channel is closed by
// Stop; slow consumers miss verdicts rather than stall the protocol.
func (d *Detector) Listen() <-chan Verdict {
	return d.emitter.Subscribe(d.verdictBuffer)
}

// Local returns the local member identity the detector was created with.
func (d *Detector) Local() membership.Member {
	return d.local
}

// Stats returns a snapshot of protocol counters and timings.
func (d *Detector) Stats() Stats {
	return d.stats.snapshot(d.roster)
}

func (d *Detector) runProtocol(ticker *clock.Ticker, stopC chan struct{}) {
	defer func() { d.state.done <- struct{}{} }()

	lastTick := d.clock.Now()
	for {
		select {
		case <-stopC:
			return
		case now := <-ticker.C:
			d.EmitEvent(ProtocolFrequencyEvent{Duration: now.Sub(lastTick)})
			d.stats.observeFrequency(now.Sub(lastTick))
			lastTick = now
			d.probeRound()
		}
	}
}

func (d *Detector) runReceive(stopC chan struct{}) {
	defer func() { d.state.done <- struct{}{} }()

	inbox := d.transport.Listen()
	for {
		select {
		case <-stopC:
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			d.handleMessage(msg)
		}
	}
}

func (d *Detector) runMembership(stopC chan struct{}) {
	defer func() { d.state.done <- struct{}{} }()

	for {
		select {
		case <-stopC:
			return
		case event, ok := <-d.membershipCh:
			if !ok {
				return
			}
			d.applyMembershipEvent(event)
		}
	}
}

// applyMembershipEvent folds one membership change into the roster. Events
// about the local member are dropped; a node never probes itself.
func (d *Detector) applyMembershipEvent(event membership.Event) {
	switch event.Type {
	case membership.Added:
		if event.Member.ID == d.local.ID {
			return
		}
		d.roster.Add(event.Member)
	case membership.Removed:
		if event.Member.ID == d.local.ID {
			return
		}
		d.roster.Remove(event.Member)
	case membership.Updated:
		if event.Member.ID == d.local.ID || event.OldMember.ID == d.local.ID {
			return
		}
		d.roster.Replace(event.OldMember, event.Member)
	default:
		d.logger.WithField("type", int(event.Type)).Warn("unknown membership event type")
		return
	}

	checksum := d.roster.Checksum()
	d.EmitEvent(ChecksumComputeEvent{Checksum: checksum})
	d.logger.WithFields(log.Fields{
		"size":     d.roster.NumMembers(),
		"checksum": checksum,
	}).Debug("roster updated")
}

// probeRound runs one protocol round against the next roster member. The
// round is fully asynchronous; the tick only starts it.
func (d *Detector) probeRound() {
	target, ok := d.roster.Next()
	if !ok {
		d.logger.Debug("no members to probe")
		return
	}
	d.probeMember(target)
}

// probeMember registers a pending probe for target under a fresh correlation
// id and fires the direct ping.
func (d *Detector) probeMember(target membership.Member) {
	d.mu.Lock()
	d.mu.round++
	cid := d.local.ID + "-" + strconv.FormatUint(d.mu.round, 10)
	d.mu.pending[cid] = &probe{
		target: target,
		stage:  stageDirect,
		sent:   d.clock.Now(),
	}
	d.mu.Unlock()

	d.sendPing(target, cid)
}

// resolve settles the pending probe for cid with the given status. Late and
// duplicate acks find no pending entry and are ignored.
func (d *Detector) resolve(cid string, status Status) {
	d.mu.Lock()
	p, ok := d.mu.pending[cid]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.mu.pending, cid)
	if p.timer != nil {
		p.timer.Stop()
	}
	elapsed := d.clock.Now().Sub(p.sent)
	d.mu.Unlock()

	d.stats.observeProbe(status, elapsed)

	verdict := Verdict{Member: p.target, Status: status}
	d.EmitEvent(verdict)
	d.emitter.Publish(verdict)

	d.logger.WithFields(log.Fields{
		"member": p.target.String(),
		"status": status,
		"id":     cid,
	}).Debug("probe resolved")
}

// onPingTimeout escalates an unanswered direct probe to the indirect stage,
// or straight to a suspect verdict when no escalation is possible.
func (d *Detector) onPingTimeout(cid string) {
	d.mu.Lock()
	p, ok := d.mu.pending[cid]
	if !ok || p.stage != stageDirect {
		d.mu.Unlock()
		return
	}

	budget := d.pingInterval - d.pingTimeout
	helpers := d.roster.SampleExcluding(p.target, d.pingReqFanout)
	if budget <= 0 || len(helpers) == 0 {
		d.mu.Unlock()
		d.resolve(cid, Suspect)
		return
	}

	p.stage = stageIndirect
	p.timer = d.clock.AfterFunc(budget, func() {
		d.resolve(cid, Suspect)
	})
	target := p.target
	d.mu.Unlock()

	d.sendPingRequests(target, helpers, cid)
}

func (d *Detector) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.mu.pending)
}

func (d *Detector) String() string {
	return fmt.Sprintf("fdetector(%s)", d.local.String())
}
