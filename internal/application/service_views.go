package application

import (
	"context"
	"log/slog"
	"strings"
)

// RecordListingView bumps the view counter for a listing at most once per
// viewer per dedup window. Counting views is best effort: every failure is
// logged and swallowed so browsing never breaks on cache or database trouble.
func (s *Service) RecordListingView(ctx context.Context, actor Actor, listingID, clientKey string) {
	if strings.TrimSpace(listingID) == "" {
		return
	}
	viewerKey := actor.SubjectID
	if viewerKey == "" {
		viewerKey = "anon:" + clientKey
	}
	if strings.TrimSpace(viewerKey) == "" || viewerKey == "anon:" {
		return
	}

	first, err := s.views.MarkViewed(ctx, listingID, viewerKey, s.cfg.ViewDedupWindow)
	if err != nil {
		slog.Default().WarnContext(ctx, "view dedup check failed",
			"service", s.cfg.ServiceName, "listing_id", listingID, "error", err)
		return
	}
	if !first {
		return
	}
	if err := s.repos.Listings().IncrementViews(ctx, listingID); err != nil {
		slog.Default().WarnContext(ctx, "view counter increment failed",
			"service", s.cfg.ServiceName, "listing_id", listingID, "error", err)
	}
}
