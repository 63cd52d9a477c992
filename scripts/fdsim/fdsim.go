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

// fdsim runs a small cluster of failure detectors over an in-process network
// and prints their verdicts. Partway through it blackholes one node so the
// others converge on suspecting it.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	"github.com/uber-common/bark"

	log "github.com/sirupsen/logrus"

	"github.com/clustermesh/fdetector"
	"github.com/clustermesh/fdetector/logging"
	"github.com/clustermesh/fdetector/membership"
	"github.com/clustermesh/fdetector/transport"
)

var (
	numNodes  = flag.Int("nodes", 5, "number of detectors to run")
	interval  = flag.Duration("interval", 1*time.Second, "protocol tick period")
	timeout   = flag.Duration("timeout", 500*time.Millisecond, "direct probe timeout")
	fanout    = flag.Int("fanout", 3, "helpers recruited per indirect probe")
	killAfter = flag.Duration("kill-after", 10*time.Second, "when to blackhole a node, 0 to disable")
	statsUDP  = flag.String("stats-udp", "", "enable stats emitting over udp")
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug level logging")
	flag.Parse()

	logger := log.StandardLogger()
	if *verbose {
		logger.Level = log.DebugLevel
	}
	logging.SetLogger(bark.NewLoggerFromLogrus(logger))

	var reporter bark.StatsReporter
	if *statsUDP != "" {
		statsdClient, err := statsd.New(*statsUDP, "")
		if err != nil {
			log.Fatalf("could not open stats connection: %v", err)
		}
		reporter = bark.NewStatsReporterFromCactus(statsdClient)
	}

	if *numNodes < 2 {
		log.Fatalf("need at least 2 nodes, got %d", *numNodes)
	}

	members := make([]membership.Member, *numNodes)
	for i := range members {
		members[i] = membership.Member{
			ID:      fmt.Sprintf("node%d", i),
			Address: fmt.Sprintf("127.0.0.1:%d", 3000+i),
		}
	}

	network := transport.NewNetwork()
	detectors := make([]*fdetector.Detector, *numNodes)

	for i, member := range members {
		membershipCh := make(chan membership.Event, *numNodes)
		for _, m := range members {
			membershipCh <- membership.MemberAdded(m)
		}

		d := fdetector.New(member, network.Join(member.Address), membershipCh, &fdetector.Options{
			PingInterval:   *interval,
			PingTimeout:    *timeout,
			PingReqMembers: *fanout,
		})
		if reporter != nil {
			fdetector.NewStatter(member.Address, reporter, d)
		}
		detectors[i] = d

		go printVerdicts(member, d.Listen())
		d.Start()
	}

	log.Infof("started %d detectors", *numNodes)

	if *killAfter > 0 {
		victim := members[len(members)-1]
		time.AfterFunc(*killAfter, func() {
			log.Warnf("blackholing %s", victim.String())
			network.Blackhole(victim.Address)
		})
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan

	log.Info("shutting down")
	for _, d := range detectors {
		d.Stop()
	}
}

func printVerdicts(local membership.Member, verdicts <-chan fdetector.Verdict) {
	for v := range verdicts {
		entry := log.WithFields(log.Fields{
			"observer": local.String(),
			"member":   v.Member.String(),
		})
		if v.Status == fdetector.Suspect {
			entry.Warn("member suspected")
		} else {
			entry.Debug("member alive")
		}
	}
}
