package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// Patch replaces one or more whole fields of a filter. Patches never
// append to an existing set.
type Patch func(*Filter)

// Merge applies patches to a copy of f.
func Merge(f Filter, patches ...Patch) Filter {
	out := f.Clone()
	for _, p := range patches {
		if p != nil {
			p(&out)
		}
	}
	return out
}

func SetSearchText(text string) Patch {
	return func(f *Filter) { f.SearchText = text }
}

func SetRegion(countries ...string) Patch {
	return func(f *Filter) { f.Region = cloneStrings(countries) }
}

func SetVehicleTypes(tags ...string) Patch {
	return func(f *Filter) { f.VehicleTypes = cloneStrings(tags) }
}

func SetBodyTypes(tags ...string) Patch {
	return func(f *Filter) { f.BodyTypes = cloneStrings(tags) }
}

func SetLanguages(codes ...string) Patch {
	return func(f *Filter) { f.Languages = cloneStrings(codes) }
}

func SetSpecializations(tags ...string) Patch {
	return func(f *Filter) { f.Specializations = cloneStrings(tags) }
}

func SetServiceRegions(names ...string) Patch {
	return func(f *Filter) { f.ServiceRegions = cloneStrings(names) }
}

// SetAvailability sets an exact availability match. The empty value clears it.
func SetAvailability(a domain.Availability) Patch {
	return func(f *Filter) {
		if a == "" {
			f.Availability = nil
			return
		}
		f.Availability = &a
	}
}

func SetMinRating(threshold float64) Patch {
	return func(f *Filter) { f.MinRating = &threshold }
}

func ClearMinRating() Patch {
	return func(f *Filter) { f.MinRating = nil }
}

func SetCertificates(c Certificates) Patch {
	return func(f *Filter) { f.Certificates = c }
}

// ParsePatch decodes a JSON object of filter keys into a Patch. Each present
// key replaces the whole field and null clears it. Unknown keys and invalid
// values are rejected with domain.ErrInvalidInput.
func ParsePatch(data []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: filter patch must be a JSON object", domain.ErrInvalidInput)
	}

	var patches []Patch
	for key, value := range raw {
		p, err := parseField(key, value)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return func(f *Filter) {
		for _, p := range patches {
			p(f)
		}
	}, nil
}

func parseField(key string, value json.RawMessage) (Patch, error) {
	null := bytes.Equal(bytes.TrimSpace(value), []byte("null"))

	decode := func(dst any) error {
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("%w: invalid value for %q", domain.ErrInvalidInput, key)
		}
		return nil
	}
	sets := func(set func(...string) Patch) (Patch, error) {
		if null {
			return set(), nil
		}
		var v []string
		if err := decode(&v); err != nil {
			return nil, err
		}
		return set(v...), nil
	}

	switch key {
	case "searchText":
		var v string
		if !null {
			if err := decode(&v); err != nil {
				return nil, err
			}
		}
		return SetSearchText(v), nil
	case "region":
		return sets(SetRegion)
	case "vehicleTypes":
		return sets(SetVehicleTypes)
	case "bodyTypes":
		return sets(SetBodyTypes)
	case "languages":
		return sets(SetLanguages)
	case "specializations":
		return sets(SetSpecializations)
	case "serviceRegions":
		return sets(SetServiceRegions)
	case "availability":
		if null {
			return SetAvailability(""), nil
		}
		var v domain.Availability
		if err := decode(&v); err != nil {
			return nil, err
		}
		if !v.Valid() {
			return nil, fmt.Errorf("%w: unknown availability %q", domain.ErrInvalidInput, v)
		}
		return SetAvailability(v), nil
	case "minRating":
		if null {
			return ClearMinRating(), nil
		}
		var v float64
		if err := decode(&v); err != nil {
			return nil, err
		}
		return SetMinRating(v), nil
	case "certificates":
		var v Certificates
		if !null {
			if err := decode(&v); err != nil {
				return nil, err
			}
		}
		return SetCertificates(v), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter key %q", domain.ErrInvalidInput, key)
	}
}
