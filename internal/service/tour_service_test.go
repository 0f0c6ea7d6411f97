package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
)

var (
	shipper = &domain.Company{ID: "ship", Type: domain.CompanyTypeShipper}
	carrier = &domain.Company{ID: "carr", Type: domain.CompanyTypeSubcontractor}
	rival   = &domain.Company{ID: "rival", Type: domain.CompanyTypeShipper}
)

func newTourService() (*TourService, *recordingPublisher) {
	pub := &recordingPublisher{}
	svc := NewTourService(newMemTourRepo(), newMemCompanyRepo(shipper, carrier, rival),
		security.NewAuthorizationServiceV2(quiet()), pub, quiet())
	return svc, pub
}

func validTour() TourInput {
	return TourInput{Title: "Pallets to Lyon", PickupCity: "Berlin", PickupCountry: "de", DeliveryCity: "Lyon", DeliveryCountry: "fr", WeightKg: 1200}
}

func TestCreateTour(t *testing.T) {
	svc, _ := newTourService()
	ctx := context.Background()

	tour, err := svc.Create(ctx, shipper, "u1", validTour())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tour.Status != domain.TourDraft || tour.Currency != "EUR" || tour.PickupCountry != "DE" {
		t.Fatalf("unexpected tour: %+v", tour)
	}

	if _, err := svc.Create(ctx, carrier, "u2", validTour()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("subcontractor created a tour: %v", err)
	}

	bad := validTour()
	pickup := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	delivery := pickup.Add(-24 * time.Hour)
	bad.PickupDate, bad.DeliveryDate = &pickup, &delivery
	if _, err := svc.Create(ctx, shipper, "u1", bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("delivery before pickup accepted: %v", err)
	}
}

func TestTourLifecycle(t *testing.T) {
	svc, pub := newTourService()
	ctx := context.Background()

	tour, err := svc.Create(ctx, shipper, "u1", validTour())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	step := func(companyID string, change StatusChange) error {
		_, err := svc.ChangeStatus(ctx, companyID, tour.ID, change)
		return err
	}

	if err := step(shipper.ID, StatusChange{Status: domain.TourInTransit}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("draft -> in_transit: %v", err)
	}
	if err := step(shipper.ID, StatusChange{Status: domain.TourPublished}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := step(shipper.ID, StatusChange{Status: domain.TourAssigned}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("assign without assignee: %v", err)
	}
	if err := step(shipper.ID, StatusChange{Status: domain.TourAssigned, AssigneeID: rival.ID}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("assign to shipper: %v", err)
	}
	if err := step(carrier.ID, StatusChange{Status: domain.TourAssigned, AssigneeID: carrier.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unassigned carrier must not see the tour: %v", err)
	}
	if err := step(shipper.ID, StatusChange{Status: domain.TourAssigned, AssigneeID: carrier.ID}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := svc.Get(ctx, carrier.ID, tour.ID); err != nil {
		t.Fatalf("assigned carrier cannot read: %v", err)
	}
	if _, err := svc.Update(ctx, carrier.ID, tour.ID, validTour()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("carrier edited the tour: %v", err)
	}
	if err := step(carrier.ID, StatusChange{Status: domain.TourCancelled}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("carrier cancelled: %v", err)
	}
	if err := step(carrier.ID, StatusChange{Status: domain.TourInTransit}); err != nil {
		t.Fatalf("carrier starts transit: %v", err)
	}
	if err := step(carrier.ID, StatusChange{Status: domain.TourDelivered}); err != nil {
		t.Fatalf("carrier delivers: %v", err)
	}
	if err := step(shipper.ID, StatusChange{Status: domain.TourCancelled}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("terminal tour changed: %v", err)
	}
	if err := svc.Delete(ctx, shipper.ID, tour.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("delivered tour deleted: %v", err)
	}

	if got := len(pub.types()); got != 4 {
		t.Fatalf("published %d events, want 4", got)
	}

	list, err := svc.List(ctx, carrier.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("carrier list = %d, %v", len(list), err)
	}
	list, _ = svc.List(ctx, rival.ID)
	if len(list) != 0 {
		t.Fatalf("rival sees %d tours", len(list))
	}
}

func TestUnassignClearsAssignee(t *testing.T) {
	svc, _ := newTourService()
	ctx := context.Background()

	tour, _ := svc.Create(ctx, shipper, "u1", validTour())
	_, _ = svc.ChangeStatus(ctx, shipper.ID, tour.ID, StatusChange{Status: domain.TourPublished})
	_, _ = svc.ChangeStatus(ctx, shipper.ID, tour.ID, StatusChange{Status: domain.TourAssigned, AssigneeID: carrier.ID})
	back, err := svc.ChangeStatus(ctx, shipper.ID, tour.ID, StatusChange{Status: domain.TourPublished})
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if back.AssignedSubcontractorID != nil {
		t.Fatal("assignee kept after unassign")
	}
	if _, err := svc.Get(ctx, carrier.ID, tour.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("former assignee still reads the tour: %v", err)
	}
}
