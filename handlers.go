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

	"github.com/clustermesh/fdetector/transport"
)

// handleMessage dispatches one inbound protocol message. Unknown qualifiers
// and undecodable payloads are logged and dropped; a failure detector never
// lets a bad peer stall its own loop.
func (d *Detector) handleMessage(msg transport.Message) {
	data, err := decodePingData(msg)
	if err != nil {
		d.logger.WithFields(log.Fields{
			"qualifier": msg.Qualifier,
			"sender":    msg.Sender,
			"error":     err,
		}).Warn("dropping undecodable message")
		return
	}

	switch msg.Qualifier {
	case PingQualifier:
		d.handlePing(msg.CorrelationID, data)
	case PingReqQualifier:
		d.handlePingRequest(msg.CorrelationID, data)
	case AckQualifier:
		switch data.Kind() {
		case TransitAck:
			d.handleTransitAck(msg.CorrelationID, data)
		default:
			d.resolve(msg.CorrelationID, Alive)
		}
	default:
		d.logger.WithFields(log.Fields{
			"qualifier": msg.Qualifier,
			"sender":    msg.Sender,
		}).Warn("dropping message with unknown qualifier")
	}
}

// handlePing answers a ping addressed to the local member by echoing its
// payload back under the ack qualifier. The echo keeps the transit marker
// intact, so relayed pings produce transit acks without the target knowing
// or caring that a relay happened. A ping for somebody else means stale
// membership on the sender's side and is dropped.
func (d *Detector) handlePing(cid string, data PingData) {
	if data.To.ID != d.local.ID {
		d.logger.WithFields(log.Fields{
			"addressee": data.To.String(),
			"from":      data.From.String(),
			"id":        cid,
		}).Warn("dropping ping addressed to another member")
		return
	}

	d.EmitEvent(PingReceiveEvent{
		Local:         d.local,
		Source:        data.From,
		CorrelationID: cid,
	})

	d.sendAck(data.From, cid, data)
}

// handlePingRequest relays a probe on behalf of the issuer. The relayed ping
// carries the issuer as the transit marker and the untouched correlation id,
// so the eventual ack can find its way home.
func (d *Detector) handlePingRequest(cid string, data PingData) {
	issuer := data.From
	target := data.To

	d.EmitEvent(PingRequestReceiveEvent{
		Local:         d.local,
		Source:        issuer,
		Target:        target,
		CorrelationID: cid,
	})

	msg, err := newMessage(PingQualifier, cid, PingData{
		From:           d.local,
		To:             target,
		OriginalIssuer: &issuer,
	})
	if err != nil {
		d.logger.WithField("error", err).Error("error encoding transit ping")
		return
	}
	if err := d.transport.Send(target.Address, msg); err != nil {
		d.logger.WithFields(log.Fields{
			"target": target.String(),
			"issuer": issuer.String(),
			"error":  err,
		}).Warn("error sending transit ping")
	}
}

// handleTransitAck converts an ack to a relayed ping into a plain ack and
// forwards it to the original issuer, where it settles the round like any
// direct ack would.
func (d *Detector) handleTransitAck(cid string, data PingData) {
	issuer := *data.OriginalIssuer

	d.EmitEvent(TransitAckRelayEvent{
		Local:         d.local,
		Issuer:        issuer,
		Target:        data.To,
		CorrelationID: cid,
	})

	d.sendAck(issuer, cid, PingData{
		From: issuer,
		To:   data.To,
	})
}
