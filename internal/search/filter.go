package search

import (
	"strings"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// Certificates are independent certificate requirements. A false flag
// imposes no constraint.
type Certificates struct {
	ADR   bool `json:"adr"`
	EU    bool `json:"eu"`
	GDP   bool `json:"gdp"`
	Other bool `json:"other"`
}

// Filter is the structured subcontractor search. The zero Filter matches
// every record.
type Filter struct {
	SearchText      string               `json:"searchText"`
	Region          []string             `json:"region"`
	VehicleTypes    []string             `json:"vehicleTypes"`
	BodyTypes       []string             `json:"bodyTypes"`
	Languages       []string             `json:"languages"`
	Specializations []string             `json:"specializations"`
	ServiceRegions  []string             `json:"serviceRegions"`
	Availability    *domain.Availability `json:"availability"`
	MinRating       *float64             `json:"minRating"`
	Certificates    Certificates         `json:"certificates"`
}

// Clone returns a deep copy so a snapshot cannot be mutated by later
// filter updates.
func (f Filter) Clone() Filter {
	out := f
	out.Region = cloneStrings(f.Region)
	out.VehicleTypes = cloneStrings(f.VehicleTypes)
	out.BodyTypes = cloneStrings(f.BodyTypes)
	out.Languages = cloneStrings(f.Languages)
	out.Specializations = cloneStrings(f.Specializations)
	out.ServiceRegions = cloneStrings(f.ServiceRegions)
	if f.Availability != nil {
		a := *f.Availability
		out.Availability = &a
	}
	if f.MinRating != nil {
		r := *f.MinRating
		out.MinRating = &r
	}
	return out
}

// Empty reports whether the filter imposes no constraint.
func (f Filter) Empty() bool {
	return f.text() == "" &&
		len(f.Region) == 0 &&
		len(f.VehicleTypes) == 0 &&
		len(f.BodyTypes) == 0 &&
		len(f.Languages) == 0 &&
		len(f.Specializations) == 0 &&
		len(f.ServiceRegions) == 0 &&
		f.availability() == "" &&
		f.MinRating == nil &&
		f.Certificates == Certificates{}
}

// Matches evaluates the filter against one record in memory. It is the
// reference for the SQL built by BuildQuery.
func (f Filter) Matches(r domain.SubcontractorRecord) bool {
	if text := strings.ToLower(f.text()); text != "" {
		if !strings.Contains(strings.ToLower(r.CompanyName), text) &&
			!strings.Contains(strings.ToLower(r.City), text) &&
			!strings.Contains(strings.ToLower(r.Country), text) {
			return false
		}
	}
	if len(f.Region) > 0 && !contains(f.Region, r.Country) {
		return false
	}
	if !containsAll(r.VehicleTypes, f.VehicleTypes) ||
		!containsAll(r.BodyTypes, f.BodyTypes) ||
		!containsAll(r.Languages, f.Languages) ||
		!containsAll(r.Specializations, f.Specializations) ||
		!containsAll(r.ServiceRegions, f.ServiceRegions) {
		return false
	}
	if a := f.availability(); a != "" && r.Availability != a {
		return false
	}
	if f.MinRating != nil && r.AvgRating < *f.MinRating {
		return false
	}
	c := f.Certificates
	if (c.ADR && !r.HasADRCertificate) ||
		(c.EU && !r.HasEULicense) ||
		(c.GDP && !r.HasGDPCertificate) ||
		(c.Other && !r.HasOtherCertificate) {
		return false
	}
	return true
}

// Apply filters records in memory.
func (f Filter) Apply(records []domain.SubcontractorRecord) []domain.SubcontractorRecord {
	out := make([]domain.SubcontractorRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) text() string {
	return strings.TrimSpace(f.SearchText)
}

func (f Filter) availability() domain.Availability {
	if f.Availability == nil {
		return ""
	}
	return *f.Availability
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// containsAll reports whether have is a superset of want.
func containsAll(have, want []string) bool {
	for _, w := range want {
		if !contains(have, w) {
			return false
		}
	}
	return true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
