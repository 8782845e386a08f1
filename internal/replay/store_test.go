package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexfront/server/internal/event"
	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
	"hexfront/server/internal/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "replay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleEvents(count int) []event.CoreEvent {
	events := make([]event.CoreEvent, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, event.CoreEvent{
			Seq:  uint64(i + 1),
			Turn: 1,
			Event: event.Event{
				Type: event.TypeMove,
				Move: &event.MoveEvent{
					UnitID: game.UnitID(1),
					From:   hexmap.Pos{Q: i},
					To:     hexmap.Pos{Q: i + 1},
					Cost:   1,
				},
			},
		})
	}
	return events
}

func TestAppendAndListRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "match-1", sampleEvents(3)))

	stored, err := store.ListSince(ctx, "match-1", 0)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, core := range stored {
		assert.Equal(t, uint64(i+1), core.Seq)
		assert.Equal(t, event.TypeMove, core.Event.Type)
		require.NotNil(t, core.Event.Move)
		assert.Equal(t, hexmap.Pos{Q: i + 1}, core.Event.Move.To)
	}
}

func TestListSinceSkipsEarlierSequences(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "match-1", sampleEvents(5)))

	tail, err := store.ListSince(ctx, "match-1", 3)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(4), tail[0].Seq)
	assert.Equal(t, uint64(5), tail[1].Seq)
}

func TestMatchesAreIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "match-1", sampleEvents(2)))
	require.NoError(t, store.Append(ctx, "match-2", sampleEvents(1)))

	first, err := store.ListSince(ctx, "match-1", 0)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := store.ListSince(ctx, "match-2", 0)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	ids, err := store.Matches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"match-2", "match-1"}, ids)
}

func TestDuplicateSequenceRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "match-1", sampleEvents(1)))
	err := store.Append(ctx, "match-1", sampleEvents(1))
	require.Error(t, err)

	stored, err := store.ListSince(ctx, "match-1", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAppendRequiresMatchID(t *testing.T) {
	store := openTestStore(t)
	err := store.Append(context.Background(), "  ", sampleEvents(1))
	require.Error(t, err)
}

func TestStoredEventsRebuildState(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	buildState := func() (*game.State, *game.Unit) {
		grid := hexmap.NewGrid(8, 8)
		state := game.NewState(grid, game.NewTypeTable(), []game.Player{{ID: 0}, {ID: 1}})
		unit := game.NewUnit(state.AllocateUnitID(), state.Types().MustGet(game.TypeRifleSquad), 0, hexmap.Pos{Q: 0, R: 0})
		require.NoError(t, state.AddUnit(unit))
		return state, unit
	}

	live, liveUnit := buildState()
	engine, err := sim.NewEngine(sim.Config{State: live})
	require.NoError(t, err)
	emitted, err := engine.Execute(event.Command{
		Type:     event.CommandMove,
		PlayerID: 0,
		Move: &event.MoveCommand{
			UnitID: liveUnit.ID,
			Path:   []hexmap.Pos{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 2, R: 0}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "match-1", emitted))

	stored, err := store.ListSince(ctx, "match-1", 0)
	require.NoError(t, err)
	require.Len(t, stored, len(emitted))

	rebuilt, rebuiltUnit := buildState()
	for _, core := range stored {
		require.NoError(t, sim.Apply(rebuilt, core))
	}

	assert.Equal(t, liveUnit.Pos, rebuiltUnit.Pos)
	assert.Equal(t, liveUnit.MovePoints, rebuiltUnit.MovePoints)
	assert.Equal(t, live.Grid().OccupantsAt(hexmap.Pos{Q: 2, R: 0}), rebuilt.Grid().OccupantsAt(hexmap.Pos{Q: 2, R: 0}))
}
