package index

import (
	"fmt"

	pkgerrors "annbench/pkg/errors"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// labelSet maps dense storage slots to caller labels and remembers every label
// ever ingested.
type labelSet struct {
	seen  *roaring64.Bitmap
	slots []int64 // slot -> label
}

func newLabelSet() *labelSet {
	return &labelSet{seen: roaring64.New()}
}

// validate rejects labels that are already present or repeated within the batch.
func (s *labelSet) validate(labels []int64) error {
	batch := roaring64.New()
	for _, l := range labels {
		key := uint64(l)
		if s.seen.Contains(key) || !batch.CheckedAdd(key) {
			return fmt.Errorf("%w: %d", pkgerrors.ErrDuplicateLabel, l)
		}
	}
	return nil
}

func (s *labelSet) append(labels []int64) {
	for _, l := range labels {
		s.seen.Add(uint64(l))
	}
	s.slots = append(s.slots, labels...)
}

func (s *labelSet) label(slot uint32) int64 {
	return s.slots[slot]
}

func (s *labelSet) len() int {
	return len(s.slots)
}

func (s *labelSet) memoryUsage() int64 {
	if len(s.slots) == 0 {
		return 0
	}
	return int64(s.seen.GetSizeInBytes()) + int64(len(s.slots))*8
}
