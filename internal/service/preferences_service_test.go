package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/search"
	"github.com/aryan0dhankhar/freightlink/internal/security"
)

type memPreferencesRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Preferences
}

func (r *memPreferencesRepo) Get(_ context.Context, id string) (*domain.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.m[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPreferencesRepo) Upsert(_ context.Context, p *domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = map[string]*domain.Preferences{}
	}
	cp := *p
	r.m[p.CompanyID] = &cp
	return nil
}

type memPrequalRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Prequalification
}

func (r *memPrequalRepo) Get(_ context.Context, id string) (*domain.Prequalification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.m[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPrequalRepo) Upsert(_ context.Context, p *domain.Prequalification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = map[string]*domain.Prequalification{}
	}
	cp := *p
	r.m[p.CompanyID] = &cp
	return nil
}

func TestDefaultFilterFromPreferences(t *testing.T) {
	refresher := &countingRefresher{}
	svc := NewPreferencesService(&memPreferencesRepo{}, &memPrequalRepo{}, refresher, quiet())
	ctx := context.Background()

	f, err := svc.DefaultFilter(ctx, shipper.ID)
	if err != nil {
		t.Fatalf("default filter: %v", err)
	}
	if !f.Empty() {
		t.Fatalf("no preferences must give an empty filter, got %+v", f)
	}

	rating := 4.0
	_, err = svc.UpdatePreferences(ctx, shipper, &domain.Preferences{
		PreferredRegions: []string{"DE", "PL"},
		VehicleTypes:     []string{"truck"},
		RequireADR:       true,
		MinRating:        &rating,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	f, err = svc.DefaultFilter(ctx, shipper.ID)
	if err != nil {
		t.Fatalf("default filter: %v", err)
	}
	if !reflect.DeepEqual(f.Region, []string{"DE", "PL"}) || !reflect.DeepEqual(f.VehicleTypes, []string{"truck"}) {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if f.MinRating == nil || *f.MinRating != 4 || f.Certificates != (search.Certificates{ADR: true}) {
		t.Fatalf("unexpected thresholds: %+v", f)
	}

	bad := 7.0
	if _, err := svc.UpdatePreferences(ctx, shipper, &domain.Preferences{MinRating: &bad}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("rating above 5 accepted: %v", err)
	}
	if _, err := svc.UpdatePreferences(ctx, carrier, &domain.Preferences{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("subcontractor saved shipper preferences: %v", err)
	}
	if refresher.count() != 0 {
		t.Fatal("preferences must not refresh the search view")
	}
}

func TestPrequalificationTriggersRefresh(t *testing.T) {
	refresher := &countingRefresher{}
	svc := NewPreferencesService(&memPreferencesRepo{}, &memPrequalRepo{}, refresher, quiet())
	ctx := context.Background()

	p, err := svc.Prequalification(ctx, carrier.ID)
	if err != nil || p.Availability != domain.AvailabilityAvailable {
		t.Fatalf("default prequalification: %+v, %v", p, err)
	}

	if _, err := svc.UpdatePrequalification(ctx, carrier, &domain.Prequalification{Availability: "busy"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown availability accepted: %v", err)
	}
	if _, err := svc.UpdatePrequalification(ctx, shipper, &domain.Prequalification{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("shipper saved prequalification: %v", err)
	}
	if _, err := svc.UpdatePrequalification(ctx, carrier, &domain.Prequalification{Languages: []string{"de"}, HasADRCertificate: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if refresher.count() != 1 {
		t.Fatalf("refresh triggered %d times, want 1", refresher.count())
	}
}

func TestFleetValidationAndOwnership(t *testing.T) {
	refresher := &countingRefresher{}
	vehicles := &memVehicleRepo{m: map[string]*domain.Vehicle{}}
	svc := NewFleetService(nil, vehicles, security.NewAuthorizationServiceV2(quiet()), refresher, quiet())
	ctx := context.Background()

	if err := svc.CreateVehicle(ctx, carrier.ID, &domain.Vehicle{VehicleType: "truck"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("vehicle without plate accepted: %v", err)
	}
	v := &domain.Vehicle{LicensePlate: "b-xy 123", VehicleType: "truck", Year: 2020}
	if err := svc.CreateVehicle(ctx, carrier.ID, v); err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.LicensePlate != "B-XY 123" {
		t.Fatalf("plate not normalised: %q", v.LicensePlate)
	}
	if _, err := svc.GetVehicle(ctx, rival.ID, v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign company read the vehicle: %v", err)
	}
	if err := svc.DeleteVehicle(ctx, rival.ID, v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign company deleted the vehicle: %v", err)
	}
	if err := svc.DeleteVehicle(ctx, carrier.ID, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if refresher.count() != 2 {
		t.Fatalf("refresh triggered %d times, want 2", refresher.count())
	}
}

type memVehicleRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Vehicle
}

func (r *memVehicleRepo) Create(_ context.Context, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = "v" + v.LicensePlate
	cp := *v
	r.m[v.ID] = &cp
	return nil
}

func (r *memVehicleRepo) GetByID(_ context.Context, id string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.m[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memVehicleRepo) ListByCompany(_ context.Context, companyID string) ([]*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Vehicle
	for _, v := range r.m {
		if v.CompanyID == companyID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memVehicleRepo) Update(_ context.Context, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.m[v.ID] = &cp
	return nil
}

func (r *memVehicleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}
