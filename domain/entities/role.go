package entities

import "fmt"

// JobRole identifies the VLSI position an interview is conducted for.
// The set is fixed; an interview never changes role after creation.
type JobRole string

const (
	RoleDesignEngineer         JobRole = "Design Engineer"
	RoleVerificationEngineer   JobRole = "Verification Engineer"
	RolePhysicalDesignEngineer JobRole = "Physical Design Engineer"
)

var roleSlugs = map[string]JobRole{
	"design-engineer":          RoleDesignEngineer,
	"verification-engineer":    RoleVerificationEngineer,
	"physical-design-engineer": RolePhysicalDesignEngineer,
}

// Roles returns every known job role in a stable order.
func Roles() []JobRole {
	return []JobRole{
		RoleDesignEngineer,
		RoleVerificationEngineer,
		RolePhysicalDesignEngineer,
	}
}

// RoleFromSlug resolves a URL slug to a job role.
func RoleFromSlug(slug string) (JobRole, error) {
	role, ok := roleSlugs[slug]
	if !ok {
		return "", &InvalidRoleError{Slug: slug}
	}
	return role, nil
}

// Valid reports whether the role belongs to the known set.
func (r JobRole) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// Slug returns the URL slug for the role.
func (r JobRole) Slug() string {
	for slug, role := range roleSlugs {
		if role == r {
			return slug
		}
	}
	return ""
}

// InvalidRoleError is returned when a role is outside the known set.
// It never causes a state transition.
type InvalidRoleError struct {
	Slug string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("unknown job role: %q", e.Slug)
}
