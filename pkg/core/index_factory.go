package core

import (
	"fmt"

	"github.com/nullvector/vectorcore/pkg/index"

	vc "github.com/nullvector/vectorcore"
)

// VectorIndex is the contract every installed index satisfies; re-exported
// here so the rest of pkg/core need not import pkg/index directly.
type VectorIndex = index.VectorIndex

// newIndex constructs an empty index of the requested type, parameterized
// by params. LSH requires an explicit seed (spec §9); callers that omit one
// get ErrInvalidArgument rather than a silently-random default.
// kdTreeOverflowRatio threads EngineConfig.KdTreeOverflowRatio through to
// the constructed KdTreeIndex, since newIndex has no Engine receiver of its
// own to read it from.
func newIndex(dimension int, params vc.BuildParams, kdTreeOverflowRatio float64) (VectorIndex, error) {
	switch params.IndexType {
	case vc.IndexTypeFlat, "":
		return index.NewFlatIndex(dimension), nil
	case vc.IndexTypeKdTree:
		return index.NewKdTreeIndex(index.KdTreeConfig{
			Dimension:     dimension,
			OverflowRatio: kdTreeOverflowRatio,
		}), nil
	case vc.IndexTypeLsh:
		if !params.LshSeedSet() {
			return nil, fmt.Errorf("%w: LSH build requires an explicit seed", vc.ErrInvalidArgument)
		}
		return index.NewLshIndex(index.LshConfig{
			Dimension:    dimension,
			NumTables:    params.LshNumTables,
			NumHashFuncs: params.LshNumHashFuncs,
			Seed:         params.LshSeed,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown index type %q", vc.ErrInvalidArgument, params.IndexType)
	}
}

// searchConsidered runs idx's search and reports how many records it
// actually weighed. Index families that only ever score their whole store
// (flat, KD-tree) report Size(); LshIndex scores a bucket-union candidate
// subset and reports that instead via index.ConsideredSearcher.
func searchConsidered(idx VectorIndex, query []float32, k int) ([]index.Scored, int, error) {
	if cs, ok := idx.(index.ConsideredSearcher); ok {
		return cs.SearchConsidered(query, k)
	}
	scored, err := idx.Search(query, k)
	return scored, idx.Size(), err
}
