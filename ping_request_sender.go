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

// sendPingRequests recruits helpers to probe target on the issuer's behalf.
// Every request carries the round's correlation id; the first plain ack to
// come back wins the round, the rest are ignored by resolve.
func (d *Detector) sendPingRequests(target membership.Member, helpers []membership.Member, cid string) {
	d.EmitEvent(PingRequestsSendEvent{
		Local:         d.local,
		Target:        target,
		Peers:         helpers,
		CorrelationID: cid,
	})

	msg, err := newMessage(PingReqQualifier, cid, PingData{
		From: d.local,
		To:   target,
	})
	if err != nil {
		d.logger.WithField("error", err).Error("error encoding ping request")
		d.resolve(cid, Suspect)
		return
	}

	for _, helper := range helpers {
		helper := helper
		go func() {
			if err := d.transport.Send(helper.Address, msg); err != nil {
				d.logger.WithFields(log.Fields{
					"peer":   helper.String(),
					"target": target.String(),
					"error":  err,
				}).Warn("error sending ping request")
			}
		}()
	}
}
