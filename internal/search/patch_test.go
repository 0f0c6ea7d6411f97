package search

import (
	"errors"
	"testing"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

func TestMergeReplacesWholeField(t *testing.T) {
	base := Filter{VehicleTypes: []string{"Sprinter"}, Languages: []string{"de"}}
	got := Merge(base, SetVehicleTypes("12t"))

	if len(got.VehicleTypes) != 1 || got.VehicleTypes[0] != "12t" {
		t.Fatalf("expected replacement, got %v", got.VehicleTypes)
	}
	if len(got.Languages) != 1 || got.Languages[0] != "de" {
		t.Fatalf("untouched field changed: %v", got.Languages)
	}
	if base.VehicleTypes[0] != "Sprinter" {
		t.Fatal("merge mutated its input")
	}
}

func TestParsePatch(t *testing.T) {
	base := Filter{
		SearchText:   "alp",
		Region:       []string{"Austria"},
		MinRating:    ptr(3.0),
		Availability: ptr(domain.AvailabilityLimited),
	}

	p, err := ParsePatch([]byte(`{"region":["Poland","Czechia"],"minRating":null,"certificates":{"adr":true},"availability":"available"}`))
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	got := Merge(base, p)

	if got.SearchText != "alp" {
		t.Fatalf("absent key changed: %q", got.SearchText)
	}
	if len(got.Region) != 2 || got.Region[0] != "Poland" {
		t.Fatalf("region = %v", got.Region)
	}
	if got.MinRating != nil {
		t.Fatal("null must clear minRating")
	}
	if !got.Certificates.ADR || got.Certificates.EU {
		t.Fatalf("certificates = %+v", got.Certificates)
	}
	if got.Availability == nil || *got.Availability != domain.AvailabilityAvailable {
		t.Fatalf("availability = %v", got.Availability)
	}
}

func TestParsePatchRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key":          `{"color":"red"}`,
		"wrong type":           `{"region":"Poland"}`,
		"unknown availability": `{"availability":"sometimes"}`,
		"not an object":        `[1,2]`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePatch([]byte(body)); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
