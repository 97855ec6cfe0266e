package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T, path string) *JournalRepository {
	t.Helper()
	repo, err := NewJournalRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestJournalRepository_Upsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	repo := openRepo(t, path)
	ctx := context.Background()

	j, err := repo.Load(ctx, "albert", "sepolia")
	require.NoError(t, err)
	assert.Nil(t, j)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.SaveRecord(ctx, "albert", "sepolia", entities.StepRecord{
		Label: "token", Contract: "Token", Status: values.StepPending, RunID: "r1", UpdatedAt: ts,
	}))
	require.NoError(t, repo.SaveRecord(ctx, "albert", "sepolia", entities.StepRecord{
		Label: "token", Contract: "Token", Status: values.StepComplete, Handle: "0xabc", RunID: "r1", UpdatedAt: ts,
	}))

	j, err = repo.Load(ctx, "albert", "sepolia")
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, 1, j.StepCount())
	rec := j.Get("token")
	assert.Equal(t, values.StepComplete, rec.Status)
	assert.Equal(t, "0xabc", rec.Handle)
	assert.True(t, ts.Equal(rec.UpdatedAt))
}

func TestJournalRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	first, err := NewJournalRepository(path)
	require.NoError(t, err)
	require.NoError(t, first.SaveRecord(ctx, "m", "localhost", entities.StepRecord{
		Label: "a", Status: values.StepComplete, Handle: "0x1",
	}))
	require.NoError(t, first.Close())

	second := openRepo(t, path)
	handle, ok := mustLoad(t, second, "m", "localhost").CompletedHandle("a")
	assert.True(t, ok)
	assert.Equal(t, "0x1", handle)

	networks, err := second.Networks(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, networks)
}

func TestJournalRepository_ConcurrentWriters(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "journal.db"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.SaveRecord(ctx, "m", "n", entities.StepRecord{
				Label: fmt.Sprintf("s%d", i), Status: values.StepComplete, Handle: "0x1",
			}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, mustLoad(t, repo, "m", "n").StepCount())
}

func TestJournalRepository_RejectsInvalid(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "journal.db"))
	err := repo.SaveRecord(context.Background(), "m", "n", entities.StepRecord{Label: "a", Status: values.StepComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a handle")
}

func mustLoad(t *testing.T, repo *JournalRepository, module, network string) *entities.Journal {
	t.Helper()
	j, err := repo.Load(context.Background(), module, network)
	require.NoError(t, err)
	require.NotNil(t, j)
	return j
}
