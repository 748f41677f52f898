package history

import "github.com/bryanwahyu/cloudvision/internal/domain/analysis"

// Record pairs a stored result document with the blob key it came from.
// Key is an opaque handle used for deletion and is only valid until the
// next listing; re-loading history invalidates earlier records.
type Record struct {
	Key    string
	Result analysis.Result
}
