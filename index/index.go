// Package index provides a flat binary index of pyramid tiles.
//
// An exported pyramid is a pair of files: a tiles file holding all encoded
// tiles back to back, and an index file holding one little-endian Item per
// tile that locates it in the tiles file.
package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/eak1mov/go-deepzoom/tile"
)

var ErrTruncated = errors.New("deepzoom: truncated index")

// Item represents a single record in the index, mapping a tile to its
// location (Offset, Length) in the tiles file.
type Item struct {
	Level  uint32
	Left   uint32
	Top    uint32
	Length uint32
	Offset uint64
}

func (i Item) TileID() tile.ID {
	return tile.ID{Level: int(i.Level), Left: int(i.Left), Top: int(i.Top)}
}

func WriteAll(items []Item, writer io.Writer) error {
	return binary.Write(writer, binary.LittleEndian, items)
}

func ReadAll(indexData []byte) ([]Item, error) {
	itemSize := binary.Size(Item{})
	if len(indexData)%itemSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(indexData))
	}
	items := make([]Item, len(indexData)/itemSize)

	err := binary.Read(bytes.NewReader(indexData), binary.LittleEndian, items)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Export writes every tile visited by r to tilesWriter and its index item to
// indexWriter. onTile, if not nil, is called after each tile.
func Export(r tile.Visitor, indexWriter, tilesWriter io.Writer, onTile func(Item)) error {
	indexBuf := bufio.NewWriter(indexWriter)
	tilesBuf := bufio.NewWriter(tilesWriter)
	tilesOffset := uint64(0)

	err := r.VisitTiles(func(tileID tile.ID, tileData []byte) error {
		item := Item{
			Level:  uint32(tileID.Level),
			Left:   uint32(tileID.Left),
			Top:    uint32(tileID.Top),
			Length: uint32(len(tileData)),
			Offset: tilesOffset,
		}

		if err := binary.Write(indexBuf, binary.LittleEndian, item); err != nil {
			return err
		}
		if _, err := tilesBuf.Write(tileData); err != nil {
			return err
		}
		tilesOffset += uint64(len(tileData))

		if onTile != nil {
			onTile(item)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tilesBuf.Flush(); err != nil {
		return err
	}
	return indexBuf.Flush()
}

// Import reads the tiles located by items from tilesReader and writes them to w.
// w is not finalized.
func Import(items []Item, tilesReader io.ReaderAt, w tile.Writer) error {
	for _, item := range items {
		tileData := make([]byte, item.Length)
		if _, err := tilesReader.ReadAt(tileData, int64(item.Offset)); err != nil {
			return fmt.Errorf("read tile %v: %w", item.TileID(), err)
		}
		if err := w.WriteTile(item.TileID(), tileData); err != nil {
			return err
		}
	}
	return nil
}
