package index

const (
	HNSWIndex IndexType = "hnsw"
	IVFIndex  IndexType = "ivf"
	FlatIndex IndexType = "flat"
)

// Build parameter names
const (
	ParamM              = "M"
	ParamEfConstruction = "efConstruction"
	ParamNList          = "nlist"
	ParamSeed           = "seed"
)

// HNSW specific constants
const (
	DEFAULT_M               = 16
	DEFAULT_EF_CONSTRUCTION = 200
	DEFAULT_EF_SEARCH       = 10
	MAX_LEVEL               = 16
)

// IVF specific constants
const (
	DEFAULT_MAX_KMEANS_ITER = 40
	DEFAULT_NLIST           = 100
	DEFAULT_NPROBE          = 10
	DEFAULT_SEED            = 42
)
