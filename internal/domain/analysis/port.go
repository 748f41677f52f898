package analysis

import "context"

// Analyzer port (interface for the remote vision service). Annotate runs
// every feature against the same image payload and fails as a whole if
// any single feature fails.
type Analyzer interface {
	Annotate(ctx context.Context, image []byte) (*Annotations, error)
}
