// Package uci drives the perft engine over a line protocol shaped like UCI:
// position set-up, perft/divide/verify jobs that run in the background and
// can be stopped, and a handful of options.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/oracle"
	"github.com/hailam/chesscore/internal/storage"
)

const defaultDepth = 5

// UCI reads commands from in and writes results to out; diagnostics go to
// errOut as "info string" lines.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	outMu  sync.Mutex

	// Persistent result cache; owned when opened through setoption
	cache     *storage.Storage
	ownsCache bool

	// Job state, touched only by the command loop
	searching  bool
	searchDone chan struct{}
	cancel     context.CancelFunc

	// CPU profiling
	profileFile *os.File
}

// New creates a driver on stdin, stdout and stderr.
func New(eng *engine.Engine) *UCI {
	return NewWithIO(eng, os.Stdin, os.Stdout, os.Stderr)
}

// NewWithIO creates a driver on the given streams.
func NewWithIO(eng *engine.Engine, in io.Reader, out, errOut io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		in:       in,
		out:      out,
		errOut:   errOut,
	}
}

// SetCache attaches a cache the caller keeps ownership of. nil detaches.
func (u *UCI) SetCache(s *storage.Storage) {
	u.closeCache()
	u.cache = s
	u.ownsCache = false
	if s == nil {
		u.engine.SetCache(nil)
	} else {
		u.engine.SetCache(s)
	}
}

// Position returns the current position.
func (u *UCI) Position() *board.Position {
	return u.position
}

// Run processes commands until "quit" or end of input. At end of input a
// running job is allowed to finish.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok\n")
		case "ucinewgame":
			u.wait()
			u.engine.Clear()
			u.position = board.NewPosition()
		case "position":
			u.wait()
			if board.DebugMoveValidation {
				u.info("DEBUG: position %s", strings.Join(args, " "))
			}
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "perft":
			u.handlePerft(args)
		case "divide":
			u.handleDivide(args)
		case "verify":
			u.handleVerify(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			u.shutdown()
			return nil
		case "setoption":
			u.wait()
			u.handleSetOption(args)
		case "cache":
			u.wait()
			u.handleCache(args)
		case "d":
			u.wait()
			u.printf("%s\n", u.position)
			if err := u.position.Validate(); err != nil {
				u.info("position is inconsistent: %v", err)
			}
		default:
			u.info("Unknown command: %s", cmd)
		}
	}

	u.wait()
	u.shutdown()
	return scanner.Err()
}

func (u *UCI) printf(format string, a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, a...)
}

func (u *UCI) info(format string, a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.errOut, "info string "+format+"\n", a...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.printf("id name chesscore\n")
	u.printf("id author chesscore developers\n\n")
	u.printf("option name Hash type spin default 16 min 0 max 4096\n")
	u.printf("option name Threads type spin default 1 min 1 max 256\n")
	u.printf("option name Debug type check default false\n")
	u.printf("option name Cache type string default <empty>\n")
	u.printf("option name CpuProfile type string default <empty>\n")
	u.printf("uciok\n")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// On any error the previous position is kept.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.info("Invalid FEN: %v", err)
			return
		}
	default:
		u.info("position needs startpos or fen, got %q", args[0])
		return
	}

	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			if _, err := pos.ApplyMove(moveStr); err != nil {
				u.info("Invalid move: %v", err)
				return
			}
		}
	}
	u.position = pos

	if board.DebugMoveValidation {
		var legal board.MoveList
		pos.GenerateLegal(board.GenAll, &legal)
		u.info("DEBUG: After position setup - hash=%016x inCheck=%v legal=%d",
			pos.Hash, pos.InCheck(), legal.Len())
	}
}

// handleGo accepts "go perft <depth>"; search is not supported.
func (u *UCI) handleGo(args []string) {
	if len(args) > 0 && args[0] == "perft" {
		u.handlePerft(args[1:])
		return
	}
	u.info("go supports only perft")
}

func (u *UCI) parseDepth(args []string) (int, bool) {
	if len(args) == 0 {
		return defaultDepth, true
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 0 || depth >= engine.MaxPly {
		u.info("Invalid depth %q", args[0])
		return 0, false
	}
	return depth, true
}

// startJob runs fn in the background. Only one job runs at a time.
func (u *UCI) startJob(fn func(ctx context.Context)) {
	u.wait()

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.searching = true
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer cancel()
		fn(ctx)
	}()
}

// wait blocks until the running job, if any, has finished.
func (u *UCI) wait() {
	if u.searching {
		<-u.searchDone
		u.searching = false
	}
}

func (u *UCI) handleStop() {
	if u.searching {
		u.cancel()
		u.engine.Stop()
		u.wait()
	}
}

func (u *UCI) handlePerft(args []string) {
	depth, ok := u.parseDepth(args)
	if !ok {
		return
	}
	pos := u.position

	u.startJob(func(ctx context.Context) {
		start := time.Now()
		nodes, err := u.engine.Perft(ctx, pos, depth)
		elapsed := time.Since(start)
		if err != nil {
			u.info("perft: %v", err)
		}

		u.printf("Nodes: %d\n", nodes)
		u.printf("Time: %v\n", elapsed)
		if elapsed > 0 {
			nps := float64(nodes) / elapsed.Seconds()
			u.printf("NPS: %.0f\n", nps)
		}
		if tt := u.engine.TranspositionTable(); tt != nil {
			u.info("hashfull %d hitrate %.1f%%", tt.HashFull(), tt.HitRate())
		}
	})
}

func (u *UCI) handleDivide(args []string) {
	depth, ok := u.parseDepth(args)
	if !ok {
		return
	}
	pos := u.position

	u.startJob(func(ctx context.Context) {
		entries, err := u.engine.Divide(ctx, pos, depth)
		if err != nil {
			u.info("divide: %v", err)
		}

		counts := make(map[string]uint64, len(entries))
		var total uint64
		for _, e := range entries {
			counts[e.Move.String()] = e.Nodes
			total += e.Nodes
		}
		moves := maps.Keys(counts)
		slices.Sort(moves)
		for _, m := range moves {
			u.printf("%s: %d\n", m, counts[m])
		}
		u.printf("\nMoves: %d\nTotal: %d\n", len(entries), total)
	})
}

func (u *UCI) handleVerify(args []string) {
	depth, ok := u.parseDepth(args)
	if !ok {
		return
	}
	if depth == 0 {
		u.info("verify needs a depth of at least 1")
		return
	}
	pos := u.position

	u.startJob(func(ctx context.Context) {
		mismatches, err := oracle.Verify(ctx, u.engine, pos, depth)
		if err != nil {
			u.info("verify: %v", err)
			return
		}
		for _, m := range mismatches {
			u.printf("mismatch %s\n", m)
		}
		if len(mismatches) == 0 {
			u.printf("verify depth %d: ok\n", depth)
		} else {
			u.printf("verify depth %d: %d mismatches\n", depth, len(mismatches))
		}
	})
}

// handleCache lists or clears the persistent cache:
//   - cache list
//   - cache clear [key-prefix]
func (u *UCI) handleCache(args []string) {
	if u.cache == nil {
		u.info("no cache configured")
		return
	}
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		recs, err := u.cache.Records()
		if err != nil {
			u.info("cache: %v", err)
			return
		}
		for _, r := range recs {
			u.printf("depth %d nodes %d moves %d key %s\n", r.Depth, r.Nodes, len(r.Divide), r.Key)
		}
		u.printf("cached: %d\n", len(recs))
	case "clear":
		prefix := strings.Join(args[1:], " ")
		n, err := u.cache.Delete(prefix)
		if err != nil {
			u.info("cache: %v", err)
			return
		}
		u.printf("deleted: %d\n", n)
	default:
		u.info("cache takes list or clear, got %q", args[0])
	}
}

func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 0 {
			u.info("Invalid Hash value %q", value)
			return
		}
		u.engine.SetHashSize(mb)
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			u.info("Invalid Threads value %q", value)
			return
		}
		u.engine.SetThreads(n)
	case "debug":
		enabled := strings.ToLower(value) == "true"
		board.DebugMoveValidation = enabled
		if enabled {
			u.info("Debug mode enabled")
		}
	case "cache":
		u.closeCache()
		u.cache = nil
		u.engine.SetCache(nil)
		if value == "" || value == "<empty>" {
			return
		}
		s, err := storage.Open(value)
		if err != nil {
			u.info("Failed to open cache: %v", err)
			return
		}
		u.cache = s
		u.ownsCache = true
		u.engine.SetCache(s)
		u.info("Cache opened at %s", value)
	case "cpuprofile":
		u.stopProfile()
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				u.info("Failed to create profile: %v", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				u.info("Failed to start profile: %v", err)
				return
			}
			u.profileFile = f
			u.info("CPU profiling to %s", value)
		}
	default:
		u.info("Unknown option %q", name)
	}
}

func (u *UCI) stopProfile() {
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
		u.info("CPU profile saved")
	}
}

func (u *UCI) closeCache() {
	if u.cache != nil && u.ownsCache {
		if err := u.cache.Close(); err != nil {
			u.info("Closing cache: %v", err)
		}
	}
	u.ownsCache = false
}

func (u *UCI) shutdown() {
	u.stopProfile()
	u.closeCache()
}
