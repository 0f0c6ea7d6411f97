package search

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Columns selected from the search view, in scan order.
const Columns = `company_id, company_name, city, country, postal_code,
	languages, service_regions, specializations, vehicle_types, body_types,
	dangerous_goods, temperature_control, express, availability,
	avg_rating, rating_count, vehicle_count, employee_count,
	has_adr_certificate, has_eu_license, has_gdp_certificate, has_other_certificate`

// View is the materialized projection the search reads.
const View = "subcontractor_search_data"

// Query is a parameterised SQL statement.
type Query struct {
	SQL  string
	Args []any
}

// BuildQuery translates a filter into one statement against the search
// view. limit <= 0 means no row cap.
func BuildQuery(f Filter, limit int) Query {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := f.text(); text != "" {
		p := arg("%" + escapeLike(text) + "%")
		where = append(where, fmt.Sprintf("(company_name ILIKE %s OR city ILIKE %s OR country ILIKE %s)", p, p, p))
	}
	if len(f.Region) > 0 {
		where = append(where, "country = ANY("+arg(pq.Array(f.Region))+"::text[])")
	}
	for _, c := range []struct {
		column string
		values []string
	}{
		{"vehicle_types", f.VehicleTypes},
		{"body_types", f.BodyTypes},
		{"languages", f.Languages},
		{"specializations", f.Specializations},
		{"service_regions", f.ServiceRegions},
	} {
		if len(c.values) > 0 {
			where = append(where, c.column+" @> "+arg(pq.Array(c.values))+"::text[]")
		}
	}
	if a := f.availability(); a != "" {
		where = append(where, "availability = "+arg(string(a)))
	}
	if f.MinRating != nil {
		where = append(where, "avg_rating >= "+arg(*f.MinRating))
	}
	if f.Certificates.ADR {
		where = append(where, "has_adr_certificate")
	}
	if f.Certificates.EU {
		where = append(where, "has_eu_license")
	}
	if f.Certificates.GDP {
		where = append(where, "has_gdp_certificate")
	}
	if f.Certificates.Other {
		where = append(where, "has_other_certificate")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(Columns)
	b.WriteString(" FROM ")
	b.WriteString(View)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY company_name")
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(arg(limit))
	}
	return Query{SQL: b.String(), Args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user text.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
