package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	cacheDir   = flag.String("cache", "", "persistent perft cache directory")
	hashMB     = flag.Int("hash", 16, "transposition table size in MB (0 disables)")
	threads    = flag.Int("threads", 1, "worker threads for divide")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine(*hashMB)
	eng.SetThreads(*threads)

	protocol := uci.New(eng)

	if cache := openCache(); cache != nil {
		defer cache.Close()
		protocol.SetCache(cache)
	}

	if err := protocol.Run(); err != nil {
		log.Printf("input: %v", err)
	}
}

// openCache opens the perft cache named by -cache, or the default location
// when CHESSCORE_DB is set. A cache that cannot be opened is reported and
// skipped.
func openCache() *storage.Storage {
	var (
		s   *storage.Storage
		err error
	)
	switch {
	case *cacheDir != "":
		s, err = storage.Open(*cacheDir)
	case os.Getenv(storage.DatabaseEnv) != "":
		s, err = storage.NewStorage()
	default:
		return nil
	}
	if err != nil {
		log.Printf("Warning: perft cache disabled: %v", err)
		return nil
	}
	return s
}
