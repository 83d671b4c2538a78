package tactical

import (
	"sync"

	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// SightEngine answers visibility and cover queries between tiles.
//
// A sightline is traced across the grid; the first obstacle with a
// blocking height class on an interior tile occludes it fully. When
// nothing occludes, cover is the single highest cover value among low
// obstacles on the path, never a sum: two 30% crates give 30%, not
// 60%. Endpoints never obstruct themselves, and units never block
// sight at all.
//
// Results are cached per unordered tile pair. Queries in either
// direction share one entry, which also guarantees both directions
// report the same blocker. Each entry remembers its traced path;
// an obstacle mutation evicts exactly the entries whose path crosses
// the mutated tile.
type SightEngine struct {
	grid      *Grid
	obstacles *Obstacles

	mu    sync.RWMutex
	cache map[tilePair]*sightEntry
}

// tilePair is an unordered coordinate pair in canonical order
type tilePair struct {
	lo, hi entities.Coordinate
}

func makeTilePair(a, b entities.Coordinate) tilePair {
	if b.Less(a) {
		return tilePair{lo: b, hi: a}
	}
	return tilePair{lo: a, hi: b}
}

type sightEntry struct {
	result engine.SightResult
	path   []entities.Coordinate
}

// NewSightEngine creates a sight engine over the given grid and
// obstacle index
func NewSightEngine(grid *Grid, obstacles *Obstacles) *SightEngine {
	return &SightEngine{
		grid:      grid,
		obstacles: obstacles,
		cache:     make(map[tilePair]*sightEntry),
	}
}

// Query computes visibility and cover between two tiles. Querying a
// tile against itself is trivially visible with no cover.
func (s *SightEngine) Query(a, b entities.Coordinate) (*engine.SightResult, error) {
	if err := s.grid.Check(a); err != nil {
		return nil, err
	}
	if err := s.grid.Check(b); err != nil {
		return nil, err
	}

	if a == b {
		return &engine.SightResult{Visible: true, Cover: 0}, nil
	}

	key := makeTilePair(a, b)

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		result := entry.result
		return &result, nil
	}

	path, err := s.grid.TraceLine(key.lo, key.hi)
	if err != nil {
		return nil, err
	}

	result := scanPath(path, s.obstacles)

	s.mu.Lock()
	s.cache[key] = &sightEntry{result: result, path: path}
	s.mu.Unlock()

	out := result
	return &out, nil
}

// scanPath walks the interior tiles of a traced sightline in canonical
// path order, so both query directions see the same blocker.
func scanPath(path []entities.Coordinate, obstacles *Obstacles) engine.SightResult {
	result := engine.SightResult{Visible: true}

	for _, tile := range path[1 : len(path)-1] {
		obstacle, ok := obstacles.At(tile)
		if !ok {
			continue
		}
		if obstacle.Height.BlocksSight() {
			return engine.SightResult{
				Visible:   false,
				Cover:     100,
				BlockerID: obstacle.ID,
			}
		}
		if obstacle.Height == entities.HeightLow && obstacle.Cover > result.Cover {
			result.Cover = obstacle.Cover
		}
	}
	return result
}

// CoverAt returns the cover percentage a defender enjoys against an
// attacker at the given tile
func (s *SightEngine) CoverAt(defender, attacker entities.Coordinate) (int, error) {
	result, err := s.Query(defender, attacker)
	if err != nil {
		return 0, err
	}
	return result.Cover, nil
}

// Invalidate evicts every cached sightline whose traced path crosses
// the given tile. Called for any obstacle add, removal, or
// destruction before the mutation becomes visible to queries.
func (s *SightEngine) Invalidate(pos entities.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.cache {
		for _, tile := range entry.path {
			if tile == pos {
				delete(s.cache, key)
				break
			}
		}
	}
}

// InvalidateAll clears the whole cache
func (s *SightEngine) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[tilePair]*sightEntry)
}

// CacheSize reports how many sightlines are currently cached
func (s *SightEngine) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
