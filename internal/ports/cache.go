package ports

import (
	"context"
	"time"
)

// ViewMarker deduplicates listing views per viewer within a window. MarkViewed
// returns true only for the first call with a given listing/viewer pair inside
// the window.
type ViewMarker interface {
	MarkViewed(ctx context.Context, listingID, viewerKey string, window time.Duration) (bool, error)
}
