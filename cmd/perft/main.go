package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/oracle"
	"github.com/hailam/chesscore/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	fen := flag.String("fen", board.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	verify := flag.Bool("verify", false, "Compare the divide against the reference generator")
	threads := flag.Int("threads", 1, "Worker threads")
	hash := flag.Int("hash", 16, "Transposition table size in MB (0 disables)")
	cacheDir := flag.String("cache", "", "Persistent perft cache directory")
	progress := flag.Bool("progress", false, "Report root moves as they complete")
	cpuProf := flag.String("cpuprofile", "", "Write CPU profile to file during run")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		return 2
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		return 2
	}

	eng := engine.NewEngine(*hash)
	eng.SetThreads(*threads)
	if *progress {
		eng.OnDivide = func(e engine.DivideEntry) {
			log.Printf("%s: %d", e.Move, e.Nodes)
		}
	}
	if *cacheDir != "" {
		cache, err := storage.Open(*cacheDir)
		if err != nil {
			log.Fatal(err)
		}
		defer cache.Close()
		eng.SetCache(cache)
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			log.Fatal("creating cpuprofile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("start cpu profile: ", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	// Interrupt stops the count and keeps the completed root moves.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *verify {
		return runVerify(ctx, eng, pos, *depth)
	}

	start := time.Now()
	entries, err := eng.Divide(ctx, pos, *depth)
	elapsed := time.Since(start)

	if *divide {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Move.String() < entries[j].Move.String()
		})
		for _, e := range entries {
			fmt.Printf("%s: %d\n", e.Move, e.Nodes)
		}
		fmt.Println()
	}

	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	fmt.Printf("Total: %d\n", total)
	fmt.Printf("Time: %s\n", elapsed)
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Printf("NPS: %.0f\n", float64(total)/secs)
	}

	if err != nil {
		log.Printf("perft incomplete: %v", err)
		return 1
	}
	return 0
}

func runVerify(ctx context.Context, eng *engine.Engine, pos *board.Position, depth int) int {
	mismatches, err := oracle.Verify(ctx, eng, pos, depth)
	if err != nil {
		log.Printf("verify: %v", err)
		return 1
	}
	for _, m := range mismatches {
		fmt.Println(m)
	}
	if len(mismatches) > 0 {
		fmt.Printf("verify depth %d: %d mismatches\n", depth, len(mismatches))
		return 1
	}
	fmt.Printf("verify depth %d: ok\n", depth)
	return 0
}
