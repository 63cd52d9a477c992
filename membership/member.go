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

// Package membership carries the member identity type and the membership
// event stream consumed by the failure detector. The authoritative member
// list lives in the membership protocol, not here.
package membership

// A Member is a stable cluster identity together with the network address it
// can be reached at. Members are immutable values; holding a Member never
// holds a network resource.
type Member struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

func (m Member) String() string {
	return m.ID + "@" + m.Address
}

// EventType tags a membership event.
type EventType int

const (
	// Added indicates a member joined the working set.
	Added EventType = iota

	// Removed indicates a member left the working set.
	Removed

	// Updated indicates a member was swapped for a new identity in place.
	Updated
)

// An Event is a single membership change. For Updated events OldMember holds
// the identity being replaced; for Added and Removed it is the zero Member.
type Event struct {
	Type      EventType
	Member    Member
	OldMember Member
}

// MemberAdded builds an Added event for m.
func MemberAdded(m Member) Event {
	return Event{Type: Added, Member: m}
}

// MemberRemoved builds a Removed event for m.
func MemberRemoved(m Member) Event {
	return Event{Type: Removed, Member: m}
}

// MemberUpdated builds an Updated event replacing old with new.
func MemberUpdated(old, new Member) Event {
	return Event{Type: Updated, Member: new, OldMember: old}
}
