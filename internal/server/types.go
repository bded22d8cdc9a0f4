package server

// CreateIndexRequest represents the request body for constructing the adapter
type CreateIndexRequest struct {
	Algorithm  string         `json:"algorithm" binding:"required"`
	Metric     string         `json:"metric" binding:"required"`
	Precision  string         `json:"precision" binding:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// DescribeIndexResponse carries the adapter's display name
type DescribeIndexResponse struct {
	Name string `json:"name"`
}

type FitRequest struct {
	Vectors [][]float32 `json:"vectors" binding:"required"`
}

type QueryArgsRequest struct {
	Ef int `json:"ef"`
}

type QueryRequest struct {
	Vector []float32 `json:"vector" binding:"required"`
	N      int       `json:"n"`
}

type QueryResponse struct {
	Labels []int64 `json:"labels"`
}

type BatchQueryRequest struct {
	Vectors [][]float32 `json:"vectors" binding:"required"`
	N       int         `json:"n"`
}

type BatchResultsResponse struct {
	Results [][]int64 `json:"results"`
}

type MemoryResponse struct {
	KiB float64 `json:"kib"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
