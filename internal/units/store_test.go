package units_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wattlelabs/advisord/internal/units"
)

func newTestStore(t *testing.T) *units.Store {
	t.Helper()

	store, err := units.Open(filepath.Join(t.TempDir(), "units.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	unit := units.Unit{
		UnitCode:         "COMP1000",
		Title:            "Introduction to Programming",
		Description:      "Foundations of programming.",
		CreditPoints:     10,
		YearLevel:        1,
		Prerequisites:    []string{"MATH1000"},
		RawPrerequisites: "MATH1000 or equivalent",
		LearningOutcomes: []string{"Write simple programs", "Explain control flow"},
	}

	require.NoError(t, store.Save(ctx, unit))

	got, err := store.Get(ctx, "COMP1000")
	require.NoError(t, err)

	assert.Equal(t, unit.Title, got.Title)
	assert.Equal(t, unit.Description, got.Description)
	assert.Equal(t, unit.CreditPoints, got.CreditPoints)
	assert.Equal(t, unit.YearLevel, got.YearLevel)
	assert.Equal(t, unit.RawPrerequisites, got.RawPrerequisites)
	assert.Equal(t, unit.LearningOutcomes, got.LearningOutcomes)
	assert.Equal(t, unit.Prerequisites, got.Prerequisites)
}

func TestStore_Save_RequiresUnitCode(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(context.Background(), units.Unit{Title: "No code"})
	assert.Error(t, err)
}

func TestStore_Save_ReplacesChildren(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	unit := units.Unit{
		UnitCode:         "COMP2000",
		Title:            "Data Structures",
		LearningOutcomes: []string{"one", "two", "three"},
		Prerequisites:    []string{"COMP1000"},
	}
	require.NoError(t, store.Save(ctx, unit))

	// A re-scrape can shrink the outcome list; stale rows must not linger.
	unit.LearningOutcomes = []string{"revised outcome"}
	unit.Prerequisites = nil
	require.NoError(t, store.Save(ctx, unit))

	got, err := store.Get(ctx, "COMP2000")
	require.NoError(t, err)
	assert.Equal(t, []string{"revised outcome"}, got.LearningOutcomes)
	assert.Empty(t, got.Prerequisites)
}

func TestStore_Get_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "NOPE9999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_All_SortedByUnitCode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, units.Unit{UnitCode: "COMP3000", Title: "Algorithms"}))
	require.NoError(t, store.Save(ctx, units.Unit{UnitCode: "COMP1000", Title: "Intro"}))
	require.NoError(t, store.Save(ctx, units.Unit{UnitCode: "COMP2000", Title: "Data Structures"}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "COMP1000", all[0].UnitCode)
	assert.Equal(t, "COMP2000", all[1].UnitCode)
	assert.Equal(t, "COMP3000", all[2].UnitCode)
}

func TestStore_All_Empty(t *testing.T) {
	store := newTestStore(t)

	all, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
