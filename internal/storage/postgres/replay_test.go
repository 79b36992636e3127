package postgres_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fightcore/internal/storage/postgres"
	"github.com/cory-johannsen/fightcore/internal/testutil"
)

func checksum(seed string) string {
	return strings.Repeat(seed, 64)
}

func newRecord(name, sum string) postgres.ReplayRecord {
	return postgres.ReplayRecord{
		Name:           name,
		P1:             "ryu",
		P2:             "ken",
		Frames:         120,
		Checksum:       sum,
		ContentVersion: "v1",
		Source:         []byte("frames: 120\n"),
	}
}

func TestReplayRepository(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	repo := pc.Pool.Replays()
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		saved, err := repo.Save(ctx, newRecord("basics", checksum("a")))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, saved.ID)
		assert.WithinDuration(t, time.Now(), saved.CreatedAt, time.Minute)

		got, err := repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved.Checksum, got.Checksum)
		assert.Equal(t, []byte("frames: 120\n"), got.Source)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, postgres.ErrReplayNotFound)
	})

	t.Run("duplicate checksum and version", func(t *testing.T) {
		_, err := repo.Save(ctx, newRecord("dup", checksum("b")))
		require.NoError(t, err)
		_, err = repo.Save(ctx, newRecord("dup", checksum("b")))
		assert.ErrorIs(t, err, postgres.ErrReplayExists)

		other := newRecord("dup", checksum("b"))
		other.ContentVersion = "v2"
		_, err = repo.Save(ctx, other)
		assert.NoError(t, err, "the same checksum under new content is a separate run")
	})

	t.Run("find by checksum", func(t *testing.T) {
		recs, err := repo.FindByChecksum(ctx, checksum("b"))
		require.NoError(t, err)
		assert.Len(t, recs, 2)

		recs, err = repo.FindByChecksum(ctx, checksum("z"))
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("latest by name", func(t *testing.T) {
		first := newRecord("latest", checksum("c"))
		_, err := repo.Save(ctx, first)
		require.NoError(t, err)
		second := newRecord("latest", checksum("d"))
		saved, err := repo.Save(ctx, second)
		require.NoError(t, err)

		got, err := repo.LatestByName(ctx, "latest")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)

		_, err = repo.LatestByName(ctx, "never-archived")
		assert.ErrorIs(t, err, postgres.ErrReplayNotFound)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, pc.Pool.Health(ctx))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, pc.Pool.Health(cancelled), "a cancelled context fails the ping")
	})

	t.Run("connect failure", func(t *testing.T) {
		cfg := pc.Config
		cfg.Port = 1
		cfg.HealthTimeout = 500 * time.Millisecond
		_, err := postgres.NewPool(ctx, cfg, nil)
		assert.Error(t, err)
	})
}
