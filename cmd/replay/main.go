// Package main provides replay, which runs recorded matches through the
// engine, prints each journal checksum, and optionally archives or verifies
// runs against PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightcore/internal/config"
	"github.com/cory-johannsen/fightcore/internal/game/action"
	"github.com/cory-johannsen/fightcore/internal/game/match"
	"github.com/cory-johannsen/fightcore/internal/observability"
	"github.com/cory-johannsen/fightcore/internal/storage/postgres"
)

type options struct {
	configPath     string
	replayPath     string
	archive        bool
	verify         bool
	contentVersion string
	trace          bool
}

// errMismatch reports that at least one run disagreed with its archived checksum.
var errMismatch = errors.New("checksum mismatch")

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to configuration file (empty = defaults and FIGHT_* env)")
	flag.StringVar(&opts.replayPath, "replay", "", "replay file to run (default: every replay in engine.replay_dir)")
	flag.BoolVar(&opts.archive, "archive", false, "store each run in the replay archive")
	flag.BoolVar(&opts.verify, "verify", false, "compare each checksum with the latest archived run of the same replay")
	flag.StringVar(&opts.contentVersion, "content-version", "", "label stored with archived runs")
	flag.BoolVar(&opts.trace, "trace", false, "print every frame on which an action starts or ends")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "replay")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}

	err = run(context.Background(), cfg, opts, logger)
	_ = logger.Sync()
	switch {
	case errors.Is(err, errMismatch):
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, opts options, logger *zap.Logger) error {
	chars, err := action.LoadCharacterDir(cfg.Engine.ContentDir)
	if err != nil {
		return fmt.Errorf("loading move lists: %w", err)
	}
	paths, err := replayFiles(opts.replayPath, cfg.Engine.ReplayDir)
	if err != nil {
		return fmt.Errorf("finding replays: %w", err)
	}

	var repo *postgres.ReplayRepository
	if opts.archive || opts.verify {
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connecting to replay archive: %w", err)
		}
		defer pool.Close()
		repo = pool.Replays()
	}

	failed := false
	for _, path := range paths {
		ok, err := runOne(ctx, path, cfg, opts, chars, repo, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		failed = failed || !ok
	}
	if failed {
		return errMismatch
	}
	return nil
}

// runOne simulates one replay file and reports whether it matched its
// archived run (always true when not verifying).
func runOne(ctx context.Context, path string, cfg config.Config, opts options,
	chars map[string]*action.Character, repo *postgres.ReplayRepository, logger *zap.Logger) (bool, error) {
	start := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading replay: %w", err)
	}
	r, err := match.ParseReplay(source)
	if err != nil {
		return false, err
	}
	if r.Name == "" {
		r.Name = filepath.Base(path)
	}
	m, err := match.Run(r, chars, cfg.Engine.BufferDepth, logger)
	if err != nil {
		return false, fmt.Errorf("running replay: %w", err)
	}
	sum := m.Checksum()
	fmt.Printf("%s  %s  frames=%d (%s of match time) [%s]\n",
		sum, r.Name, m.Frames(),
		time.Duration(m.Frames())*cfg.Engine.FrameDuration(),
		time.Since(start).Round(time.Microsecond))
	if opts.trace {
		printTrace(m.Journal())
	}

	matched := true
	if opts.verify {
		prev, err := repo.LatestByName(ctx, r.Name)
		switch {
		case errors.Is(err, postgres.ErrReplayNotFound):
			fmt.Printf("  no archived run of %s\n", r.Name)
		case err != nil:
			return false, fmt.Errorf("loading archived replay: %w", err)
		case prev.Checksum != sum:
			fmt.Printf("  MISMATCH: archived %s (%s)\n", prev.Checksum, prev.CreatedAt.Format(time.RFC3339))
			matched = false
		default:
			fmt.Printf("  matches archived run %s\n", prev.ID)
		}
	}
	if opts.archive {
		rec, err := repo.Save(ctx, postgres.ReplayRecord{
			Name:           r.Name,
			P1:             r.Characters[0],
			P2:             r.Characters[1],
			Frames:         m.Frames(),
			Checksum:       sum,
			ContentVersion: opts.contentVersion,
			Source:         source,
		})
		switch {
		case errors.Is(err, postgres.ErrReplayExists):
			fmt.Printf("  already archived\n")
		case err != nil:
			return false, fmt.Errorf("archiving replay: %w", err)
		default:
			fmt.Printf("  archived as %s\n", rec.ID)
		}
	}
	return matched, nil
}

func replayFiles(single, dir string) ([]string, error) {
	if single != "" {
		return []string{single}, nil
	}
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no replay files in %s", dir)
	}
	slices.Sort(paths)
	return paths, nil
}

func printTrace(journal []match.FrameOutcome) {
	for _, o := range journal {
		for side, r := range o.Results {
			if r.Started == "" && r.Completed == "" && r.Advance != action.StatusBranched {
				continue
			}
			fmt.Printf("  %5d p%d", o.Frame, side+1)
			if r.Started != "" {
				fmt.Printf(" start=%s", r.Started)
				if r.Forced {
					fmt.Print(" (forced)")
				}
				if r.Cancelled != "" {
					fmt.Printf(" cancels=%s", r.Cancelled)
				}
			}
			if r.Advance == action.StatusBranched {
				fmt.Print(" branch")
			}
			if r.Completed != "" {
				fmt.Printf(" done=%s", r.Completed)
			}
			fmt.Println()
		}
	}
}
