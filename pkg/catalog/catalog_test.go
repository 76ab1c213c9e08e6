package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/space"
)

func openMem(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestPutGetRoundtrip(t *testing.T) {
	cat := openMem(t)

	want := space.Point{
		Label:       "LOVE",
		Coordinates: geometry.Vec4{0.92, 0.45, 0.15, 0.70},
		Provenance:  "emotions",
	}
	require.NoError(t, cat.Put(want))

	got, err := cat.Get("LOVE")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetMissing(t *testing.T) {
	cat := openMem(t)
	_, err := cat.Get("MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutValidates(t *testing.T) {
	cat := openMem(t)

	err := cat.Put(space.Point{Label: ""})
	assert.ErrorIs(t, err, space.ErrEmptyLabel)
}

func TestPutOverwrites(t *testing.T) {
	cat := openMem(t)

	require.NoError(t, cat.Put(space.Point{Label: "X", Coordinates: geometry.Vec4{0.1, 0.1, 0.1, 0.1}}))
	require.NoError(t, cat.Put(space.Point{Label: "X", Coordinates: geometry.Vec4{0.9, 0.9, 0.9, 0.9}}))

	got, err := cat.Get("X")
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec4{0.9, 0.9, 0.9, 0.9}, got.Coordinates)

	n, err := cat.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDelete(t *testing.T) {
	cat := openMem(t)

	require.NoError(t, cat.Put(space.Point{Label: "X", Coordinates: geometry.Vec4{0.1, 0.1, 0.1, 0.1}}))
	require.NoError(t, cat.Delete("X"))

	_, err := cat.Get("X")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, cat.Delete("X"), ErrNotFound)
}

func TestListOrder(t *testing.T) {
	cat := openMem(t)

	for _, label := range []string{"WISDOM", "LOVE", "POWER"} {
		require.NoError(t, cat.Put(space.Point{Label: label, Coordinates: geometry.Vec4{0.5, 0.5, 0.5, 0.5}}))
	}

	points, err := cat.List()
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "LOVE", points[0].Label)
	assert.Equal(t, "POWER", points[1].Label)
	assert.Equal(t, "WISDOM", points[2].Label)
}

func TestSnapshotIsolation(t *testing.T) {
	cat := openMem(t)
	require.NoError(t, cat.Put(space.Point{Label: "A", Coordinates: geometry.Vec4{0.1, 0.2, 0.3, 0.4}}))

	snap, err := cat.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())

	// Later writes never show up in an existing snapshot.
	require.NoError(t, cat.Put(space.Point{Label: "B", Coordinates: geometry.Vec4{0.5, 0.5, 0.5, 0.5}}))
	assert.Equal(t, 1, snap.Len())
	assert.False(t, snap.Has("B"))
}

func TestImportStore(t *testing.T) {
	cat := openMem(t)

	store, err := space.FromMap(map[string]geometry.Vec4{
		"LOVE": {0.92, 0.45, 0.15, 0.70},
		"HATE": {0.12, 0.35, 0.75, 0.25},
	})
	require.NoError(t, err)

	n, err := cat.ImportStore(store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := cat.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	cat, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, cat.Put(space.Point{Label: "KEEP", Coordinates: geometry.Vec4{0.3, 0.3, 0.3, 0.3}}))
	require.NoError(t, cat.Close())

	reopened, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("KEEP")
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec4{0.3, 0.3, 0.3, 0.3}, got.Coordinates)
}

func TestClosedCatalog(t *testing.T) {
	cat, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, cat.Close())
	require.NoError(t, cat.Close()) // idempotent

	assert.ErrorIs(t, cat.Put(space.Point{Label: "X"}), ErrClosed)
	_, err = cat.Get("X")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = cat.List()
	assert.ErrorIs(t, err, ErrClosed)
}
