package application_test

import (
	"context"
	"testing"

	"github.com/marketloop/escrow-settlement-service/internal/application"
)

func TestRecordListingViewDedupesPerViewer(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	buyer := application.Actor{SubjectID: "buyer-1", Role: "user"}

	svc.RecordListingView(context.Background(), buyer, "lst-1", "")
	svc.RecordListingView(context.Background(), buyer, "lst-1", "")
	if listing, _ := store.ListingByID("lst-1"); listing.ViewsCount != 1 {
		t.Fatalf("expected one counted view, got %d", listing.ViewsCount)
	}

	svc.RecordListingView(context.Background(), application.Actor{}, "lst-1", "203.0.113.7")
	if listing, _ := store.ListingByID("lst-1"); listing.ViewsCount != 2 {
		t.Fatalf("expected anonymous viewer counted, got %d", listing.ViewsCount)
	}
}

func TestRecordListingViewIgnoresAnonymousWithoutKey(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	svc.RecordListingView(context.Background(), application.Actor{}, "lst-1", "")
	if listing, _ := store.ListingByID("lst-1"); listing.ViewsCount != 0 {
		t.Fatalf("expected view dropped, got %d", listing.ViewsCount)
	}
}
