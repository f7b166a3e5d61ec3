// Command worldctl creates, inspects, advances, and verifies a world
// directory written by diskstore.Store: init creates a directory with a
// fresh checkpointed world, step advances a replayed world by a number of
// ticks (checkpointing on the configured cadence), info reports the
// latest checkpoint, verify checks the checkpoint's fingerprint, replay
// reconstructs the world from snapshot plus log and reports its final
// shape, and history lists the recorded checkpoints.
//
// init and step take their tunables from a kernelconfig.Config (YAML file
// or environment); for those commands -path may be omitted to use the
// config's data_dir.
//
// Exit codes: 0 on success, 1 on integrity or replay failure, 2 on an
// unreadable path or bad usage.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"worldkernel/internal/kernel/grid"
	"worldkernel/internal/kernel/world"
	"worldkernel/internal/kernelconfig"
	"worldkernel/internal/persistence/diskstore"
	"worldkernel/internal/persistence/sqliteindex"
	"worldkernel/internal/worlderr"
	"worldkernel/internal/worldlog"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := flag.Arg(0)
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	path := fs.String("path", "", "world directory (init/step default to the config's data_dir)")
	configPath := fs.String("config", "", "YAML config file (init/step; falls back to environment)")
	schemaPath := fs.String("schema", "", "JSON Schema to validate -config against (init/step)")
	ticks := fs.Uint64("n", 1, "ticks to advance (step only)")
	fs.Parse(flag.Args()[1:])

	// init and step resolve a missing -path from their config; the
	// read-only commands require an existing directory up front.
	if cmd != "init" && cmd != "step" {
		if *path == "" {
			fmt.Fprintln(os.Stderr, "missing -path")
			os.Exit(2)
		}
		if fi, statErr := os.Stat(*path); statErr != nil || !fi.IsDir() {
			fmt.Fprintf(os.Stderr, "%s: unreadable path %s\n", cmd, *path)
			os.Exit(2)
		}
	}

	var err error
	switch cmd {
	case "init":
		err = runInit(*path, *configPath, *schemaPath)
	case "step":
		err = runStep(*path, *configPath, *schemaPath, *ticks)
	case "info":
		err = runInfo(*path)
	case "verify":
		err = runVerify(*path)
	case "replay":
		err = runReplay(*path)
	case "history":
		err = runHistory(*path)
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, cmd+":", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the documented exit codes: integrity-class
// failures (bad fingerprint, inconsistent replay, corrupt bytes) are 1,
// everything else (missing or unreadable files) is 2.
func exitCode(err error) int {
	switch {
	case errors.Is(err, worlderr.ErrIntegrityFailed),
		errors.Is(err, worlderr.ErrReplayInconsistent),
		errors.Is(err, worlderr.ErrSerializationFailed):
		return 1
	default:
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: worldctl <init|step|info|verify|replay|history> -path <world-dir> [-config <yaml> [-schema <json>]] [-n <ticks>]")
}

// loadConfig resolves the tunables for init and step: a YAML file when
// -config is given (schema-validated when -schema is too), the
// environment otherwise.
func loadConfig(configPath, schemaPath string) (kernelconfig.Config, error) {
	if configPath != "" {
		return kernelconfig.FromYAMLFile(configPath, schemaPath)
	}
	return kernelconfig.FromEnv()
}

func runInit(path, configPath, schemaPath string) error {
	cfg, err := loadConfig(configPath, schemaPath)
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.DataDir
	}

	s, err := diskstore.Open(path, diskstore.Options{})
	if err != nil {
		return err
	}
	s.SetLogger(worldlog.New("worldctl"))
	s.SetEnforceSteppedSeed(cfg.EnforceStepSeed)

	w := world.New(cfg.Seed)
	if _, err := s.Checkpoint(w); err != nil {
		_ = s.Close()
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}
	fmt.Printf("initialized %s: world_id=%s seed=%d\n", path, cfg.WorldID, cfg.Seed)
	return nil
}

// runStep replays the world, advances it n ticks, and flushes the new
// events, checkpointing whenever the configured cadence elapses. It
// finishes by rebuilding the spatial partition at the configured cell
// size and reporting the world's shape.
func runStep(path, configPath, schemaPath string, n uint64) error {
	cfg, err := loadConfig(configPath, schemaPath)
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.DataDir
	}
	if fi, statErr := os.Stat(path); statErr != nil || !fi.IsDir() {
		return fmt.Errorf("unreadable path %s", path)
	}

	s, err := diskstore.Open(path, diskstore.Options{})
	if err != nil {
		return err
	}
	defer s.Close()
	s.SetLogger(worldlog.New("worldctl"))
	s.SetEnforceSteppedSeed(cfg.EnforceStepSeed)

	w, err := s.ReplayLatest()
	if err != nil {
		return err
	}

	lastCheckpoint := uint64(0)
	if snap, ok := s.Latest(); ok {
		lastCheckpoint = snap.Tick
	}
	for i := uint64(0); i < n; i++ {
		w.Step()
		if w.Tick()-lastCheckpoint >= cfg.CheckpointEvery {
			if _, err := s.Checkpoint(w); err != nil {
				return err
			}
			lastCheckpoint = w.Tick()
		}
	}
	if _, err := s.Flush(w); err != nil {
		return err
	}

	g := grid.New(cfg.GridCellSize)
	g.Rebuild(w.Iter)
	fmt.Printf("stepped %d ticks: tick=%d seed=%d entities=%d occupied_cells=%d\n",
		n, w.Tick(), w.Seed(), w.Len(), g.CellCount())
	return nil
}

func runHistory(path string) error {
	idx, err := sqliteindex.Open(filepath.Join(path, "index.db"))
	if err != nil {
		return err
	}
	defer idx.Close()

	rows, err := idx.History()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no checkpoints recorded")
		return nil
	}
	for _, row := range rows {
		fmt.Printf("%s tick=%d seed=%d entities=%d fingerprint=%x\n",
			row.RecordedAt, row.Tick, row.Seed, row.Entities, row.Fingerprint)
	}
	return nil
}

func runInfo(path string) error {
	s, err := diskstore.Open(path, diskstore.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	snap, ok := s.Latest()
	if !ok {
		fmt.Println("no snapshot yet")
		return nil
	}

	size, statErr := dirSize(path)
	sizeStr := "unknown"
	if statErr == nil {
		sizeStr = humanize.Bytes(uint64(size))
	}

	fmt.Printf("tick=%d seed=%d entities=%d fingerprint=%x on_disk=%s\n",
		snap.Tick, snap.Seed, len(snap.Entities), snap.Fingerprint, sizeStr)
	return nil
}

func runVerify(path string) error {
	s, err := diskstore.Open(path, diskstore.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.VerifyIntegrity()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("FAIL: fingerprint mismatch")
		return worlderr.ErrIntegrityFailed
	}
	fmt.Println("OK: fingerprint matches")
	return nil
}

func runReplay(path string) error {
	s, err := diskstore.Open(path, diskstore.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.ReplayLatest()
	if err != nil {
		return err
	}
	fmt.Printf("replay ok: tick=%d seed=%d entities=%d\n", w.Tick(), w.Seed(), w.Len())
	return nil
}

func dirSize(path string) (int64, error) {
	ents, err := os.ReadDir(path)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
