package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func openTemp(t *testing.T) (*Storage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, dir
}

func TestStorage(t *testing.T) {
	s, dir := openTemp(t)

	t.Run("Miss", func(t *testing.T) {
		if _, ok := s.Lookup("8/8/8/8/8/8/8/8 w - -", 3); ok {
			t.Error("Lookup hit on an empty cache")
		}
	})

	divide := map[string]uint64{"e2e4": 600, "d2d4": 560}
	t.Run("StoreLookup", func(t *testing.T) {
		if err := s.Store("start", 3, divide); err != nil {
			t.Fatalf("Store: %v", err)
		}
		got, ok := s.Lookup("start", 3)
		if !ok || len(got) != 2 || got["e2e4"] != 600 || got["d2d4"] != 560 {
			t.Errorf("Lookup = %v, %v", got, ok)
		}
		if _, ok := s.Lookup("start", 2); ok {
			t.Error("Lookup hit at the wrong depth")
		}

		rec, ok, err := s.Load("start", 3)
		if err != nil || !ok {
			t.Fatalf("Load = %v, %v", ok, err)
		}
		if rec.Nodes != 1160 || rec.Recorded.IsZero() {
			t.Errorf("record nodes=%d recorded=%v", rec.Nodes, rec.Recorded)
		}
	})

	t.Run("Reopen", func(t *testing.T) {
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		reopened, err := Open(dir)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		s = reopened
		if got, ok := s.Lookup("start", 3); !ok || got["e2e4"] != 600 {
			t.Errorf("record lost across reopen: %v, %v", got, ok)
		}
	})

	t.Run("RecordsAndDelete", func(t *testing.T) {
		for _, rec := range []*PerftRecord{
			{Key: "start", Depth: 10, Divide: map[string]uint64{"a2a3": 1}},
			{Key: "kiwipete", Depth: 3, Divide: map[string]uint64{"e1g1": 2}},
		} {
			if err := s.Save(rec); err != nil {
				t.Fatal(err)
			}
		}

		recs, err := s.Records()
		if err != nil {
			t.Fatal(err)
		}
		var order []string
		for _, r := range recs {
			order = append(order, fmt.Sprintf("%s/%d", r.Key, r.Depth))
		}
		want := []string{"kiwipete/3", "start/3", "start/10"}
		if len(order) != len(want) {
			t.Fatalf("records %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("records %v, want %v", order, want)
				break
			}
		}

		n, err := s.Delete("start")
		if err != nil || n != 2 {
			t.Errorf("Delete(start) = %d, %v; want 2", n, err)
		}
		if n, err := s.Delete(""); err != nil || n != 1 {
			t.Errorf("Delete(\"\") = %d, %v; want 1", n, err)
		}
	})

	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestStorageAsEngineCache(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	var _ engine.Cache = s

	eng := engine.NewEngine(0)
	eng.SetCache(s)
	pos := board.NewPosition()

	first, err := eng.Divide(context.Background(), pos, 2)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok, err := s.Load(engine.PositionKey(pos), 2)
	if err != nil || !ok {
		t.Fatalf("divide was not cached: %v, %v", ok, err)
	}
	if rec.Nodes != 400 || len(rec.Divide) != len(first) {
		t.Errorf("cached nodes=%d moves=%d", rec.Nodes, len(rec.Divide))
	}

	nodes, err := eng.Perft(context.Background(), pos, 2)
	if err != nil || nodes != 400 {
		t.Errorf("Perft from cache = %d, %v", nodes, err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if filepath.Base(dataDir) != appName {
		t.Errorf("data directory %s does not end in %s", dataDir, appName)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	override := filepath.Join(t.TempDir(), "cache")
	t.Setenv(DatabaseEnv, override)
	dbDir, err := GetDatabaseDir()
	if err != nil || dbDir != override {
		t.Fatalf("GetDatabaseDir() = %s, %v; want %s", dbDir, err, override)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}
