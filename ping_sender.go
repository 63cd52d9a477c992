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
	log "github.com/uber-common/bark"

	"github.com/clustermesh/fdetector/membership"
)

// sendPing issues the direct probe of a round and arms its timeout. A send
// failure is logged but does not settle the round; the timeout escalates it
// the same way a lost packet would.
func (d *Detector) sendPing(target membership.Member, cid string) {
	msg, err := newMessage(PingQualifier, cid, PingData{
		From: d.local,
		To:   target,
	})
	if err != nil {
		d.logger.WithField("error", err).Error("error encoding ping")
		d.resolve(cid, Suspect)
		return
	}

	d.EmitEvent(PingSendEvent{
		Local:         d.local,
		Remote:        target,
		CorrelationID: cid,
	})

	if err := d.transport.Send(target.Address, msg); err != nil {
		d.logger.WithFields(log.Fields{
			"remote": target.String(),
			"error":  err,
		}).Warn("error sending ping")
	}

	d.mu.Lock()
	if p, ok := d.mu.pending[cid]; ok && p.stage == stageDirect {
		p.timer = d.clock.AfterFunc(d.pingTimeout, func() {
			d.onPingTimeout(cid)
		})
	}
	d.mu.Unlock()
}

// sendAck echoes a ping payload back at the sender under the ack qualifier.
// Echoing the whole payload preserves the transit marker, which the issuer's
// helper uses to tell a relayed ack from a direct one.
func (d *Detector) sendAck(to membership.Member, cid string, data PingData) {
	msg, err := newMessage(AckQualifier, cid, data)
	if err != nil {
		d.logger.WithField("error", err).Error("error encoding ack")
		return
	}
	if err := d.transport.Send(to.Address, msg); err != nil {
		d.logger.WithFields(log.Fields{
			"remote": to.String(),
			"error":  err,
		}).Warn("error sending ack")
	}
}
