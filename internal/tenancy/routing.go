package tenancy

import "github.com/aryan0dhankhar/freightlink/internal/domain"

const (
	RouteRoot                   = "/"
	RouteLogin                  = "/login"
	RouteCreateCompany          = "/create-company"
	RouteShipperDashboard       = "/dashboard/shipper"
	RouteSubcontractorDashboard = "/dashboard/subcontractor"
	// RouteUnsupportedCompany is the terminal route for company types this
	// build does not know how to present.
	RouteUnsupportedCompany = "/unsupported-company-type"
)

// Decision is the outcome of gating a protected route.
type Decision struct {
	// Wait means tenancy is still resolving and nothing should render.
	Wait bool
	// Redirect is the route to navigate to; empty means render the
	// requested path.
	Redirect string
}

// Render reports whether the requested route may be shown as is.
func (d Decision) Render() bool {
	return !d.Wait && d.Redirect == ""
}

// DashboardRoute returns the home dashboard for a company type.
func DashboardRoute(t domain.CompanyType) string {
	switch t {
	case domain.CompanyTypeShipper:
		return RouteShipperDashboard
	case domain.CompanyTypeSubcontractor:
		return RouteSubcontractorDashboard
	default:
		return RouteUnsupportedCompany
	}
}

// HomeRoute is where a ready session lands by default.
func HomeRoute(s State) string {
	switch {
	case !s.Authenticated():
		return RouteLogin
	case !s.HasCompany || s.Company == nil:
		return RouteCreateCompany
	default:
		return DashboardRoute(s.Company.Type)
	}
}

// Gate decides what a protected route shows for the session state.
func Gate(s State, path string) Decision {
	if s.Loading {
		return Decision{Wait: true}
	}
	if !s.Authenticated() {
		return Decision{Redirect: RouteLogin}
	}
	if !s.HasCompany || s.Company == nil {
		if path == RouteCreateCompany {
			return Decision{}
		}
		return Decision{Redirect: RouteCreateCompany}
	}

	home := DashboardRoute(s.Company.Type)
	switch path {
	case RouteRoot, RouteCreateCompany:
		return Decision{Redirect: home}
	case RouteShipperDashboard, RouteSubcontractorDashboard:
		if path != home {
			return Decision{Redirect: home}
		}
	}
	return Decision{}
}
