package main

import (
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/internal/testimage"
	"github.com/eak1mov/go-deepzoom/mb"
	"github.com/eak1mov/go-deepzoom/pyramid"
	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, visitor tile.Visitor) map[tile.ID][]byte {
	t.Helper()
	tiles := make(map[tile.ID][]byte)
	for tileID, tileData := range tile.IterTiles(visitor) {
		tiles[tileID] = tileData
	}
	return tiles
}

func TestPackUnpack(t *testing.T) {
	workDir := t.TempDir()
	imagePath := testimage.WritePNG(t, workDir, "pattern.png", 2100, 40)
	result, err := pyramid.Create(imagePath, "")
	require.NoError(t, err)

	archivePath := filepath.Join(workDir, "pattern.mbtiles")
	packed := 0
	require.NoError(t, packPyramid(result.Path, archivePath, func() { packed++ }))
	require.Equal(t, result.Tiles, packed)

	source, err := dz.NewReader(result.Path)
	require.NoError(t, err)
	archive, err := mb.NewReader(archivePath)
	require.NoError(t, err)
	defer archive.Close()

	manifest, err := archive.ReadManifest()
	require.NoError(t, err)
	if diff := cmp.Diff(result.Manifest, manifest); diff != "" {
		t.Errorf("archive manifest mismatch (-want+got):\n%v", diff)
	}
	metadata, err := archive.ReadMetadata()
	require.NoError(t, err)
	require.Equal(t, "pattern", metadata["name"])

	want := readAll(t, source)
	if diff := cmp.Diff(want, readAll(t, archive)); diff != "" {
		t.Errorf("archive tiles mismatch (-want+got):\n%v", diff)
	}

	require.Error(t, packPyramid(result.Path, archivePath, func() {}), "existing archive must not be overwritten")

	unpackedDir := filepath.Join(workDir, "unpacked")
	unpacked := 0
	require.NoError(t, unpackArchive(archivePath, unpackedDir, func() { unpacked++ }))
	require.Equal(t, result.Tiles, unpacked)

	restored, err := dz.NewReader(unpackedDir)
	require.NoError(t, err)
	restoredManifest, err := restored.ReadManifest()
	require.NoError(t, err)
	require.Equal(t, result.Manifest, restoredManifest)
	require.True(t, maps.EqualFunc(want, readAll(t, restored), func(a, b []byte) bool { return string(a) == string(b) }))
}

func TestPackIncompletePyramid(t *testing.T) {
	workDir := t.TempDir()
	rootDir := filepath.Join(workDir, "pattern")
	writer, err := dz.NewWriter(rootDir)
	require.NoError(t, err)
	require.NoError(t, writer.WriteLevel(0))

	err = packPyramid(rootDir, filepath.Join(workDir, "pattern.mbtiles"), func() {})
	require.ErrorIs(t, err, dz.ErrIncomplete)
	require.NoFileExists(t, filepath.Join(workDir, "pattern.mbtiles"))
}

func TestPackFailureRemovesArchive(t *testing.T) {
	workDir := t.TempDir()
	imagePath := testimage.WritePNG(t, workDir, "pattern.png", 1920, 8)
	result, err := pyramid.Create(imagePath, "")
	require.NoError(t, err)

	offGrid := filepath.Join(result.Path, "0", "50800_0.jpg")
	require.NoError(t, os.WriteFile(offGrid, []byte("x"), 0644))

	archivePath := filepath.Join(workDir, "pattern.mbtiles")
	err = packPyramid(result.Path, archivePath, func() {})
	require.ErrorIs(t, err, mb.ErrInvalidTile)
	require.NoFileExists(t, archivePath)

	require.NoError(t, os.Remove(offGrid))
	require.NoError(t, packPyramid(result.Path, archivePath, func() {}))
	archive, err := mb.NewReader(archivePath)
	require.NoError(t, err)
	defer archive.Close()
	require.Len(t, readAll(t, archive), result.Tiles)
}

func TestIsArchive(t *testing.T) {
	require.True(t, isArchive(false, "image.mbtiles"))
	require.True(t, isArchive(true, "image.db"))
	require.False(t, isArchive(false, "image"))
}
