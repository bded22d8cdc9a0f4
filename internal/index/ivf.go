package index

import (
	"fmt"
	"math/rand/v2"

	"annbench/internal/metric"
	pkgerrors "annbench/pkg/errors"
)

// ivfIndex partitions points into inverted lists around k-means centroids
// trained on the first ingested batch. Search breadth is the number of lists
// probed per query.
type ivfIndex struct {
	core

	nlist     int
	nprobe    int
	seed      uint64
	centroids [][]float32 // in prepared (query) space
	lists     [][]uint32
}

func newIVFIndex(config *IndexConfig) (VectorIndex, error) {
	nlist, err := positiveParam(config.Parameters, ParamNList, DEFAULT_NLIST)
	if err != nil {
		return nil, err
	}
	seed, _, err := IntParam(config.Parameters, ParamSeed)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = DEFAULT_SEED
	}

	i := &ivfIndex{nlist: nlist, nprobe: DEFAULT_NPROBE, seed: uint64(seed)}
	if err := i.init(config); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *ivfIndex) Add(labels []int64, vectors [][]float32) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.validateAdd(labels, vectors); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}

	prepared := make([][]float32, len(vectors))
	for j, v := range vectors {
		prepared[j] = i.store.Prepare(v)
	}
	if i.centroids == nil {
		i.train(prepared)
	}

	first := i.store.Len()
	i.store.Append(vectors)
	i.labels.append(labels)
	for j, v := range prepared {
		c := nearestCentroid(i.centroids, v)
		i.lists[c] = append(i.lists[c], uint32(first+j))
	}
	return nil
}

// train runs Lloyd's k-means with a seeded random initialisation.
func (i *ivfIndex) train(points [][]float32) {
	k := min(i.nlist, len(points))
	rng := rand.New(rand.NewPCG(i.seed, i.seed))
	perm := rng.Perm(len(points))

	centroids := make([][]float32, k)
	for c := range k {
		centroids[c] = append([]float32(nil), points[perm[c]]...)
	}

	assign := make([]int, len(points))
	for p := range assign {
		assign[p] = -1
	}
	dim := i.Dimension()
	for iter := 0; iter < DEFAULT_MAX_KMEANS_ITER; iter++ {
		changed := false
		for p, v := range points {
			c := nearestCentroid(centroids, v)
			if c != assign[p] {
				assign[p] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for p, v := range points {
			c := assign[p]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}
		for c := range centroids {
			// empty clusters keep their previous centroid
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}
	}

	i.centroids = centroids
	i.lists = make([][]uint32, k)
}

func nearestCentroid(centroids [][]float32, v []float32) int {
	best, bestDist := 0, metric.SquaredL2(centroids[0], v)
	for c := 1; c < len(centroids); c++ {
		if d := metric.SquaredL2(centroids[c], v); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (i *ivfIndex) SetSearchBreadth(ef int) error {
	if err := validateBreadth(ef); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return fmt.Errorf("%w: index is closed", pkgerrors.ErrInvalidState)
	}
	i.nprobe = ef
	return nil
}

func (i *ivfIndex) SearchBreadth() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.nprobe
}

func (i *ivfIndex) Search(vector []float32, n int) (*SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.search(vector, n)
}

func (i *ivfIndex) BatchSearch(vectors [][]float32, n int) ([]*SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return batchSearch(vectors, n, i.search)
}

func (i *ivfIndex) search(vector []float32, n int) (*SearchResult, error) {
	if err := i.validateQuery(vector, n); err != nil {
		return nil, err
	}
	q := i.store.Prepare(vector)
	if n >= i.labels.len() {
		return i.exhaustive(q, n), nil
	}

	ranked := make([]candidate, len(i.centroids))
	for c, centroid := range i.centroids {
		ranked[c] = candidate{slot: uint32(c), dist: metric.SquaredL2(centroid, q)}
	}
	sortCandidates(ranked)

	var cands []candidate
	for _, list := range ranked[:min(i.nprobe, len(ranked))] {
		for _, slot := range i.lists[list.slot] {
			cands = append(cands, candidate{slot: slot, dist: i.store.Distance(q, slot)})
		}
	}
	return i.result(cands, n), nil
}

func (i *ivfIndex) MemoryUsage() int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed || i.labels.len() == 0 {
		return 0
	}
	usage := i.memoryUsage()
	usage += int64(len(i.centroids) * i.Dimension() * 4)
	for _, l := range i.lists {
		usage += 24 + int64(len(l))*4
	}
	return usage
}

func (i *ivfIndex) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.release()
	i.centroids = nil
	i.lists = nil
	return nil
}
