// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// protofuzz-bench drives the mutation engine in a loop over a sample
// message and reports the empirical operation distribution and message
// size statistics. With -http it also exposes the counters as
// prometheus metrics, which is handy when eyeballing long runs.
//
// Usage:
//
//	protofuzz-bench -seed 1 -iters 1000000 -max-size 4096 -http :8080
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/stat"
	"google.golang.org/protobuf/proto"

	"github.com/jyh0082007/libprotobuf-mutator/pkg/mutator"
	"github.com/jyh0082007/libprotobuf-mutator/pkg/testmsg"
)

var (
	flagSeed     = flag.Uint("seed", 0, "PRNG seed")
	flagIters    = flag.Int("iters", 100000, "number of mutations to run")
	flagMaxSize  = flag.Int("max-size", 4096, "soft budget for the serialized message size")
	flagKeepInit = flag.Bool("keep-init", false, "repair required fields after every mutation")
	flagHTTP     = flag.String("http", "", "serve prometheus metrics on this address")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "protofuzz-bench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	m := mutator.New(uint32(*flagSeed))
	m.KeepInitialized = *flagKeepInit

	opCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protofuzz_mutations_total",
		Help: "Mutations applied, by operation.",
	}, []string{"op"})
	sizeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "protofuzz_message_bytes",
		Help: "Serialized size of the message being mutated.",
	})
	if *flagHTTP != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(opCounter, sizeGauge)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			err := http.ListenAndServe(*flagHTTP, handlers.CombinedLoggingHandler(os.Stderr, mux))
			fmt.Fprintf(os.Stderr, "protofuzz-bench: metrics server: %v\n", err)
		}()
	}

	msg := testmsg.NewMsg()
	counts := make(map[mutator.Mutation]int)
	sizes := make([]float64, 0, *flagIters)
	for i := 0; i < *flagIters; i++ {
		// The hint is the remaining size budget, the way a fuzzing
		// harness computes it from its max input length.
		hint := max(*flagMaxSize-proto.Size(msg), 0)
		op := m.Mutate(msg, hint)
		counts[op]++
		opCounter.WithLabelValues(op.String()).Inc()

		size := float64(proto.Size(msg))
		sizeGauge.Set(size)
		sizes = append(sizes, size)
	}

	mean, stddev := stat.MeanStdDev(sizes, nil)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "op\tcount\tshare\n")
	for _, op := range []mutator.Mutation{
		mutator.MutationAdd, mutator.MutationMutate, mutator.MutationDelete, mutator.MutationCopy,
	} {
		fmt.Fprintf(w, "%v\t%d\t%.4f\n", op, counts[op], float64(counts[op])/float64(*flagIters))
	}
	fmt.Fprintf(w, "size bytes\t%.1f\t±%.1f\n", mean, stddev)
	return w.Flush()
}
