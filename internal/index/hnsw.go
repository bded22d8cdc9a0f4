package index

import (
	"encoding/binary"
	"fmt"
	"math"

	pkgerrors "annbench/pkg/errors"

	"github.com/bits-and-blooms/bitset"
	"github.com/twmb/murmur3"
)

type hnswNode struct {
	level int
	links [][]uint32 // per layer, capacity fixed at creation
}

// hnswIndex is a hierarchical navigable small-world graph over storage slots.
// A point's level is derived from a hash of its label, so the same input
// always yields the same graph.
type hnswIndex struct {
	core

	m              int // links per upper layer
	mmax0          int // links on layer 0
	efConstruction int
	ef             int
	ml             float64

	nodes    []*hnswNode
	entry    uint32
	maxLevel int
}

func newHNSWIndex(config *IndexConfig) (VectorIndex, error) {
	m, err := positiveParam(config.Parameters, ParamM, DEFAULT_M)
	if err != nil {
		return nil, err
	}
	efConstruction, err := positiveParam(config.Parameters, ParamEfConstruction, DEFAULT_EF_CONSTRUCTION)
	if err != nil {
		return nil, err
	}

	h := &hnswIndex{
		m:              m,
		mmax0:          2 * m,
		efConstruction: efConstruction,
		ef:             DEFAULT_EF_SEARCH,
	}
	if err := h.init(config); err != nil {
		return nil, err
	}
	// M == 1 would give 1/log(1)
	h.ml = 1 / math.Log(float64(max(m, 2)))
	return h, nil
}

func (h *hnswIndex) Add(labels []int64, vectors [][]float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.validateAdd(labels, vectors); err != nil {
		return err
	}

	first := h.store.Len()
	h.store.Append(vectors)
	h.labels.append(labels)
	for i, label := range labels {
		h.insert(uint32(first+i), label)
	}
	return nil
}

func (h *hnswIndex) SetSearchBreadth(ef int) error {
	if err := validateBreadth(ef); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("%w: index is closed", pkgerrors.ErrInvalidState)
	}
	h.ef = ef
	return nil
}

func (h *hnswIndex) SearchBreadth() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ef
}

func (h *hnswIndex) Search(vector []float32, n int) (*SearchResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.search(vector, n)
}

func (h *hnswIndex) BatchSearch(vectors [][]float32, n int) ([]*SearchResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return batchSearch(vectors, n, h.search)
}

// search runs under the read lock.
func (h *hnswIndex) search(vector []float32, n int) (*SearchResult, error) {
	if err := h.validateQuery(vector, n); err != nil {
		return nil, err
	}
	q := h.store.Prepare(vector)
	if n >= len(h.nodes) {
		return h.exhaustive(q, n), nil
	}

	dist := func(slot uint32) float32 { return h.store.Distance(q, slot) }
	ep, epDist := h.descend(dist, h.entry, dist(h.entry), h.maxLevel, 0)
	found := h.searchLayer(dist, ep, epDist, max(h.ef, n), 0)
	return h.result(found, n), nil
}

func (h *hnswIndex) MemoryUsage() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed || len(h.nodes) == 0 {
		return 0
	}
	usage := h.memoryUsage()
	for _, node := range h.nodes {
		// pointer, level and the layer slice header
		usage += 8 + 8 + 24
		for _, l := range node.links {
			usage += 24 + int64(cap(l))*4
		}
	}
	return usage
}

func (h *hnswIndex) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.release()
	h.nodes = nil
	return nil
}

// levelFor draws an exponentially distributed level from the label hash.
func (h *hnswIndex) levelFor(label int64) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(label))
	sum := murmur3.Sum64(buf[:])
	// 53 high bits into (0, 1)
	u := (float64(sum>>11) + 0.5) / (1 << 53)
	level := int(math.Floor(-math.Log(u) * h.ml))
	return min(level, MAX_LEVEL)
}

func (h *hnswIndex) maxConnections(level int) int {
	if level == 0 {
		return h.mmax0
	}
	return h.m
}

func (h *hnswIndex) insert(slot uint32, label int64) {
	level := h.levelFor(label)
	node := &hnswNode{level: level, links: make([][]uint32, level+1)}
	for l := range node.links {
		node.links[l] = make([]uint32, 0, h.maxConnections(l)+1)
	}
	h.nodes = append(h.nodes, node)

	if len(h.nodes) == 1 {
		h.entry = slot
		h.maxLevel = level
		return
	}

	dist := func(other uint32) float32 { return h.store.Between(slot, other) }
	ep, epDist := h.descend(dist, h.entry, dist(h.entry), h.maxLevel, level)

	for l := min(level, h.maxLevel); l >= 0; l-- {
		found := h.searchLayer(dist, ep, epDist, h.efConstruction, l)
		neighbours := h.selectNeighbours(found, h.m)
		for _, nb := range neighbours {
			node.links[l] = append(node.links[l], nb.slot)
		}
		for _, nb := range neighbours {
			h.link(nb.slot, slot, l)
		}
		ep, epDist = found[0].slot, found[0].dist
	}

	if level > h.maxLevel {
		h.entry = slot
		h.maxLevel = level
	}
}

// descend walks greedily from ep through layers (from, to] and returns the
// closest point found.
func (h *hnswIndex) descend(dist func(uint32) float32, ep uint32, epDist float32, from, to int) (uint32, float32) {
	for level := from; level > to; level-- {
		changed := true
		for changed {
			changed = false
			for _, nb := range h.nodes[ep].links[level] {
				if d := dist(nb); d < epDist {
					ep, epDist = nb, d
					changed = true
				}
			}
		}
	}
	return ep, epDist
}

// searchLayer is the best-first beam search of one layer. It returns at most ef
// candidates sorted nearest first.
func (h *hnswIndex) searchLayer(dist func(uint32) float32, ep uint32, epDist float32, ef, level int) []candidate {
	visited := bitset.New(uint(len(h.nodes)))
	visited.Set(uint(ep))

	start := candidate{slot: ep, dist: epDist}
	candidates := &priorityQueue{}
	candidates.push(start)
	top := &priorityQueue{farthest: true}
	top.push(start)

	for candidates.Len() > 0 {
		c := candidates.pop()
		if top.Len() >= ef && c.dist > top.top().dist {
			break
		}
		links := h.nodes[c.slot].links
		if level >= len(links) {
			continue
		}
		for _, nb := range links[level] {
			if visited.Test(uint(nb)) {
				continue
			}
			visited.Set(uint(nb))

			item := candidate{slot: nb, dist: dist(nb)}
			if top.Len() < ef || closer(item, top.top()) {
				candidates.push(item)
				top.push(item)
				if top.Len() > ef {
					top.pop()
				}
			}
		}
	}

	found := make([]candidate, top.Len())
	for i := len(found) - 1; i >= 0; i-- {
		found[i] = top.pop()
	}
	return found
}

// selectNeighbours applies the HNSW diversity heuristic to candidates sorted
// nearest first: a candidate is kept when it is closer to the base than to
// every neighbour already kept. Pruned candidates backfill up to m.
func (h *hnswIndex) selectNeighbours(sorted []candidate, m int) []candidate {
	if len(sorted) <= m {
		return sorted
	}
	selected := make([]candidate, 0, m)
	var pruned []candidate
	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		good := true
		for _, s := range selected {
			if h.store.Between(c.slot, s.slot) < c.dist {
				good = false
				break
			}
		}
		if good {
			selected = append(selected, c)
		} else {
			pruned = append(pruned, c)
		}
	}
	for _, c := range pruned {
		if len(selected) >= m {
			break
		}
		selected = append(selected, c)
	}
	return selected
}

// link adds a back-link from -> to on level, re-pruning when from is full.
func (h *hnswIndex) link(from, to uint32, level int) {
	node := h.nodes[from]
	maxConn := h.maxConnections(level)
	node.links[level] = append(node.links[level], to)
	if len(node.links[level]) <= maxConn {
		return
	}

	cands := make([]candidate, len(node.links[level]))
	for i, nb := range node.links[level] {
		cands[i] = candidate{slot: nb, dist: h.store.Between(from, nb)}
	}
	sortCandidates(cands)
	kept := h.selectNeighbours(cands, maxConn)

	links := node.links[level][:0]
	for _, c := range kept {
		links = append(links, c.slot)
	}
	node.links[level] = links
}
