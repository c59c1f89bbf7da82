package mb_test

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"testing"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/mb"
	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/eak1mov/go-deepzoom/zoom"
	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	manifest := dz.NewManifest(zoom.Plan(4096, 2048))

	tiles := make(map[tile.ID][]byte)
	var order []tile.ID
	for _, level := range slices.Backward(manifest.Levels()) {
		for origin := range tile.Origins(level.Width, level.Height) {
			tileID := tile.ID{Level: level.ID, Left: origin.X, Top: origin.Y}
			tiles[tileID] = fmt.Appendf(nil, "%v", tileID)
			order = append(order, tileID)
		}
	}

	filePath := filepath.Join(t.TempDir(), "image.mbtiles")
	writer, err := mb.NewWriter(filePath, manifest, mb.WithMetadata(map[string]string{"name": "image"}))
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer writer.Close()

	for _, tileID := range order {
		if err := writer.WriteTile(tileID, tiles[tileID]); err != nil {
			t.Fatalf("WriteTile(%v) failed: %v", tileID, err)
		}
	}
	if err := writer.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	reader, err := mb.NewReader(filePath)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	gotManifest, err := reader.ReadManifest()
	require.NoError(t, err)
	if diff := cmp.Diff(manifest, gotManifest); diff != "" {
		t.Errorf("ReadManifest mismatch (-want+got):\n%v", diff)
	}

	metadata, err := reader.ReadMetadata()
	require.NoError(t, err)
	require.Equal(t, "image", metadata["name"])
	require.Equal(t, "jpg", metadata["format"])

	if got, want := maps.Collect(tile.IterTiles(reader)), tiles; !cmp.Equal(got, want) {
		t.Errorf("VisitTiles data mismatch")
	}

	var levels []int
	for tileID := range tile.IterTiles(reader) {
		levels = append(levels, tileID.Level)
	}
	require.True(t, slices.IsSorted(levels), "VisitTiles must group tiles by level")

	data, err := reader.ReadTileFile(1, "508_1016.jpg")
	require.NoError(t, err)
	require.Equal(t, tiles[tile.ID{Level: 1, Left: 508, Top: 1016}], data)

	for _, name := range []string{"508_1016.png", "0_0", "../0_0.jpg", "9_9.jpg"} {
		data, err := reader.ReadTileFile(1, name)
		require.NoError(t, err)
		require.Emptyf(t, data, "ReadTileFile(1, %q)", name)
	}

	data, err = reader.ReadTile(tile.ID{Level: 5, Left: 0, Top: 0})
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestWriterRejectsForeignTiles(t *testing.T) {
	manifest := dz.Manifest{{Width: 1920, Height: 1080}}
	writer, err := mb.NewWriter(filepath.Join(t.TempDir(), "image.mbtiles"), manifest)
	require.NoError(t, err)
	defer writer.Close()

	for _, tileID := range []tile.ID{
		{Level: 1, Left: 0, Top: 0},
		{Level: 0, Left: 2032, Top: 0},
		{Level: 0, Left: 1, Top: 0},
	} {
		require.ErrorIsf(t, writer.WriteTile(tileID, []byte("x")), mb.ErrInvalidTile, "WriteTile(%v)", tileID)
	}
	require.NoError(t, writer.WriteTile(tile.ID{Level: 0, Left: 1524, Top: 1016}, []byte("x")))
}

func TestNewReaderMissingArchive(t *testing.T) {
	_, err := mb.NewReader(filepath.Join(t.TempDir(), "missing.mbtiles"))
	require.Error(t, err)
}

func TestUnfinalizedArchiveIsIncomplete(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "image.mbtiles")
	manifest := dz.Manifest{{Width: 1920, Height: 8}}
	writer, err := mb.NewWriter(filePath, manifest, mb.WithMetadata(map[string]string{dz.ManifestName: "[]"}))
	require.NoError(t, err)
	require.NoError(t, writer.WriteTile(tile.ID{Level: 0, Left: 0, Top: 0}, []byte("x")))
	require.NoError(t, writer.Close())

	_, err = mb.NewReader(filePath)
	require.ErrorIs(t, err, dz.ErrIncomplete)
}
