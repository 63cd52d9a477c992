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
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/dgryski/go-farm"

	"github.com/clustermesh/fdetector/membership"
	"github.com/clustermesh/fdetector/util"
)

// A roster is the working set of probeable peers and their visitation order.
// The order is round-robin with a reshuffle every time the cursor wraps, so
// every member is visited exactly once before any repeats. The local member
// is never in the roster; the detector filters it out of membership events.
type roster struct {
	sync.RWMutex
	members  []membership.Member
	cursor   int
	checksum uint32
}

func newRoster() *roster {
	return &roster{}
}

// Add inserts the member at a uniformly random position, boundaries
// included. Random insertion keeps recently joined members from clumping at
// the tail of the visitation order.
func (r *roster) Add(member membership.Member) {
	r.Lock()
	defer r.Unlock()

	index := rand.Intn(len(r.members) + 1)
	r.members = append(r.members, membership.Member{})
	copy(r.members[index+1:], r.members[index:])
	r.members[index] = member
	r.recomputeChecksum()
}

// Remove drops the first member with the same identity. Removing an absent
// member is a no-op.
func (r *roster) Remove(member membership.Member) {
	r.Lock()
	defer r.Unlock()

	index := r.indexOf(member.ID)
	if index == -1 {
		return
	}
	r.members = append(r.members[:index], r.members[index+1:]...)
	r.recomputeChecksum()
}

// Replace swaps old for new in place. The position is preserved so the
// round-robin cursor neither skips nor revisits a slot because of the swap.
func (r *roster) Replace(old, new membership.Member) {
	r.Lock()
	defer r.Unlock()

	index := r.indexOf(old.ID)
	if index == -1 {
		return
	}
	r.members[index] = new
	r.recomputeChecksum()
}

// Next returns the next member in round-robin order. When the cursor runs
// off the end the roster is reshuffled and the cursor starts over.
func (r *roster) Next() (membership.Member, bool) {
	r.Lock()
	defer r.Unlock()

	if len(r.members) == 0 {
		return membership.Member{}, false
	}
	if r.cursor >= len(r.members) {
		r.cursor = 0
		r.shuffle()
	}
	member := r.members[r.cursor]
	r.cursor++
	return member, true
}

// SampleExcluding returns up to k members drawn from a freshly shuffled copy
// of the roster, never including target. It returns fewer than k when fewer
// candidates exist, and nothing when k <= 0.
func (r *roster) SampleExcluding(target membership.Member, k int) []membership.Member {
	if k <= 0 {
		return nil
	}

	r.RLock()
	candidates := make([]membership.Member, 0, len(r.members))
	for _, member := range r.members {
		if member.ID != target.ID {
			candidates = append(candidates, member)
		}
	}
	r.RUnlock()

	if len(candidates) == 0 {
		return nil
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:util.Min(k, len(candidates))]
}

// NumMembers returns the size of the probe set.
func (r *roster) NumMembers() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.members)
}

// Members returns a copy of the probe set in its current visitation order.
func (r *roster) Members() []membership.Member {
	r.RLock()
	defer r.RUnlock()

	members := make([]membership.Member, len(r.members))
	copy(members, r.members)
	return members
}

// Checksum returns a fingerprint of the current membership. Insertion order
// does not matter; two rosters holding the same members agree.
func (r *roster) Checksum() uint32 {
	r.RLock()
	defer r.RUnlock()

	return r.checksum
}

func (r *roster) indexOf(id string) int {
	for i, member := range r.members {
		if member.ID == id {
			return i
		}
	}
	return -1
}

func (r *roster) shuffle() {
	rand.Shuffle(len(r.members), func(i, j int) {
		r.members[i], r.members[j] = r.members[j], r.members[i]
	})
}

func (r *roster) recomputeChecksum() {
	entries := make([]string, 0, len(r.members))
	for _, member := range r.members {
		entries = append(entries, member.ID+"@"+member.Address)
	}
	sort.Strings(entries)
	r.checksum = farm.Fingerprint32([]byte(strings.Join(entries, ";")))
}
