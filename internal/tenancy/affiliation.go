package tenancy

import "github.com/aryan0dhankhar/freightlink/internal/domain"

// Kind distinguishes how an identity relates to its company.
type Kind int

const (
	KindNone Kind = iota
	KindOwned
	KindMember
)

func (k Kind) String() string {
	switch k {
	case KindOwned:
		return "owned"
	case KindMember:
		return "member"
	default:
		return "none"
	}
}

// Affiliation is the resolved company of an identity. Owned and member
// affiliations are mutually exclusive; an identity has at most one company.
type Affiliation struct {
	Kind    Kind
	Company *domain.Company
	Role    domain.Role
}

// Owned is the affiliation of a company's creator.
func Owned(c *domain.Company, role domain.Role) Affiliation {
	return Affiliation{Kind: KindOwned, Company: c, Role: role}
}

// Member is the affiliation of an identity that joined via membership.
func Member(c *domain.Company, role domain.Role) Affiliation {
	return Affiliation{Kind: KindMember, Company: c, Role: role}
}

// None is the affiliation of an identity without a company.
func None() Affiliation {
	return Affiliation{Kind: KindNone}
}

// HasCompany reports whether a company was resolved.
func (a Affiliation) HasCompany() bool {
	return a.Kind != KindNone && a.Company != nil
}
