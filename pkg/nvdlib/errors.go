package nvdlib

// APIError reports a failed call to the NVD service: a non-2xx answer
// or an explicit empty result for a single-ID lookup.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return "APIError: " + e.Message }

// ParseError reports a malformed CVE item in an API payload. One bad
// item discards the whole payload.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "ParseError: " + e.Message }

// DataError reports a value outside the fixed NVD vocabulary.
type DataError struct {
	Message string
}

func (e *DataError) Error() string { return "DataError: " + e.Message }
