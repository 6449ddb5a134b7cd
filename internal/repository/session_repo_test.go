package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Povusa/TECNOMAT/internal/domain"
	"github.com/Povusa/TECNOMAT/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoFactories runs every contract test against both implementations.
func repoFactories() map[string]func(t *testing.T) SessionRepo {
	return map[string]func(t *testing.T) SessionRepo{
		"sqlite": func(t *testing.T) SessionRepo { return NewSQLiteSessionRepo(testutil.NewTestDB(t)) },
		"memory": func(t *testing.T) SessionRepo { return NewMemorySessionRepo() },
	}
}

func forEachRepo(t *testing.T, fn func(t *testing.T, repo SessionRepo)) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func TestSessionRepo_PutAndGetRoundTrip(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		s := testutil.NewTestSession("abc",
			testutil.NewTestProject(2),
			testutil.NewTestProject(3.25, testutil.WithReport("P-7", domain.ReportClosedYes)),
		)
		s.Current = domain.NewProjectEntry(domain.Classification{Kind: domain.WorkNonBillable})
		s.Answers.SetHours(domain.SplitHours(9))
		s.ArtifactPath = "/out/abc/PARTE_TRABAJO_Ana_17102026.xlsx"
		s.Summary = "resumen"
		require.NoError(t, repo.Put(ctx, s))

		got, err := repo.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, s.Phase, got.Phase)
		assert.Equal(t, s.Projects, got.Projects)
		assert.Equal(t, 5.25, got.AccumulatedHours)
		require.NotNil(t, got.Current)
		assert.Equal(t, domain.LabelNonBillable, got.Current.Classification.Label)
		assert.Equal(t, s.Answers.Fields(), got.Answers.Fields())
		assert.Equal(t, s.ArtifactPath, got.ArtifactPath)
		assert.Equal(t, "resumen", got.Summary)
		assert.True(t, s.UpdatedAt.Equal(got.UpdatedAt))
		assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
	})
}

func TestSessionRepo_RoundTripIsLossless(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		s := testutil.NewTestSession("full",
			testutil.NewTestProject(1.5, testutil.WithKind(domain.WorkOrder, "OT-12")),
			testutil.NewTestProject(0.25, testutil.WithReport("P-9", domain.ReportClosedNo)),
		)
		s.Answers.SetDate(testutil.FixedNow)
		s.Answers.SetHours(domain.SplitHours(10.5))
		s.Phase = domain.PhaseCompleted
		s.ArtifactPath = "/out/full/PARTE_TRABAJO_Ana_17102026.xlsx"
		s.Summary = "✅ Resumen"
		require.NoError(t, repo.Put(ctx, s))

		got, err := repo.Get(ctx, "full")
		require.NoError(t, err)
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestSessionRepo_GetNotFound(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSessionRepo_GetReturnsIndependentCopy(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		require.NoError(t, repo.Put(ctx, testutil.NewTestSession("s", testutil.NewTestProject(1))))

		got, err := repo.Get(ctx, "s")
		require.NoError(t, err)
		got.Projects[0].Hours = 99
		got.Phase = domain.PhaseError

		again, err := repo.Get(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, 1.0, again.Projects[0].Hours)
		assert.Equal(t, domain.PhaseAwaitingMoreProjects, again.Phase)
	})
}

func TestSessionRepo_PutOverwrites(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		s := testutil.NewTestSession("s")
		require.NoError(t, repo.Put(ctx, s))

		s.Phase = domain.PhaseAwaitingTotalHours
		s.UpdatedAt = s.UpdatedAt.Add(time.Minute)
		require.NoError(t, repo.Put(ctx, s))

		got, err := repo.Get(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseAwaitingTotalHours, got.Phase)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestSessionRepo_Delete(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		require.NoError(t, repo.Put(ctx, testutil.NewTestSession("s")))

		require.NoError(t, repo.Delete(ctx, "s"))
		_, err := repo.Get(ctx, "s")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "s"), ErrNotFound)
	})
}

func TestSessionRepo_ListIdle(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		base := testutil.FixedNow
		for i, age := range []time.Duration{3 * time.Hour, 30 * time.Minute, 5 * time.Hour} {
			s := testutil.NewTestSession(fmt.Sprintf("s%d", i))
			s.UpdatedAt = base.Add(-age)
			require.NoError(t, repo.Put(ctx, s))
		}

		ids, err := repo.ListIdle(ctx, base.Add(-2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []string{"s2", "s0"}, ids)

		ids, err = repo.ListIdle(ctx, base.Add(-10*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestSessionRepo_ConcurrentPuts(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo SessionRepo) {
		ctx := context.Background()
		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- repo.Put(ctx, testutil.NewTestSession(fmt.Sprintf("s%02d", i)))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 50, n)
	})
}
