package index

import (
	"fmt"

	pkgerrors "annbench/pkg/errors"
	"annbench/pkg/logger"
)

// New builds an empty engine of config.IndexType sized for config.Dimension.
func New(config *IndexConfig) (VectorIndex, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil index config", pkgerrors.ErrInvalidParameter)
	}

	var (
		index VectorIndex
		err   error
	)
	switch config.IndexType {
	case HNSWIndex, "":
		index, err = newHNSWIndex(config)
	case FlatIndex:
		index, err = newFlatIndex(config)
	case IVFIndex:
		index, err = newIVFIndex(config)
	default:
		return nil, fmt.Errorf("%w: index type %q", pkgerrors.ErrUnsupportedConfiguration, config.IndexType)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Created vector index",
		"type", config.IndexType,
		"dimension", config.Dimension,
		"metric", config.Metric,
		"precision", config.Precision)
	return index, nil
}

// Types lists the supported engines.
func Types() []IndexType {
	return []IndexType{HNSWIndex, FlatIndex, IVFIndex}
}
