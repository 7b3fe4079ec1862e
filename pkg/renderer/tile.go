package renderer

import (
	"image"
	"math/rand"
)

// Tile represents a rectangular region of the frame to be rendered.
// Bounds use X for columns and Y for rows counted from the bottom row.
type Tile struct {
	ID              int             // Unique tile identifier
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	FramesCompleted int             // Number of frames this tile has been rendered in
	Random          *rand.Rand      // Tile-specific random generator for deterministic results
}

// tileSeedStride spreads frame seeds apart so tile streams of neighbouring seeds never coincide
const tileSeedStride = 1_000_003

// NewTile creates a new tile whose generator is seeded from seed and the tile ID
func NewTile(id int, bounds image.Rectangle, seed int64) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
		Random: rand.New(rand.NewSource(tileSeed(seed, id))),
	}
}

// tileSeed mixes the frame seed with the tile ID
func tileSeed(seed int64, id int) int64 {
	return seed*tileSeedStride + int64(id)
}

// NewTileGrid creates a grid of tiles covering the entire frame
func NewTileGrid(width, height, tileSize int, seed int64) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1), seed))
			tileID++
		}
	}

	return tiles
}
