package access

import (
	"fmt"
	"strings"
)

// Ranks are the numeric thresholds of the closed, ordered set of member levels.
type Ranks struct {
	PRWhitelist int
	Mentor      int
	Admin       int
	Superadmin  int
}

// Validate enforces pr_whitelist < mentor < admin < superadmin.
func (r Ranks) Validate() error {
	if !(r.PRWhitelist < r.Mentor && r.Mentor < r.Admin && r.Admin < r.Superadmin) {
		return fmt.Errorf("invalid rank order: want pr_whitelist(%d) < mentor(%d) < admin(%d) < superadmin(%d)",
			r.PRWhitelist, r.Mentor, r.Admin, r.Superadmin)
	}
	return nil
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Email string
	Rank  int
}

// Is reports whether email names the same member, ignoring case.
func (i Identity) Is(email string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Email), strings.TrimSpace(email))
}

// Requirement is the minimum clearance a route declares.
type Requirement int

const (
	RequireWhitelist Requirement = iota
	RequireMentor
	RequireAdmin
	RequireSuperadmin
	// RequireApprover admits mentors and anyone at admin rank or above.
	RequireApprover
)

func (r Requirement) String() string {
	switch r {
	case RequireWhitelist:
		return "pr_whitelist"
	case RequireMentor:
		return "mentor"
	case RequireAdmin:
		return "admin"
	case RequireSuperadmin:
		return "superadmin"
	case RequireApprover:
		return "approver"
	default:
		return "unknown"
	}
}

// Allows reports whether rank satisfies req.
func (r Ranks) Allows(rank int, req Requirement) bool {
	switch req {
	case RequireWhitelist:
		return rank >= r.PRWhitelist
	case RequireMentor:
		return rank >= r.Mentor
	case RequireAdmin:
		return rank >= r.Admin
	case RequireSuperadmin:
		return rank >= r.Superadmin
	case RequireApprover:
		return rank == r.Mentor || rank >= r.Admin
	default:
		return false
	}
}

// Reason is the message shown to a member who fails req.
func (r Ranks) Reason(req Requirement) string {
	if req == RequireWhitelist {
		return "Must be whitelisted to use the Purchase Request system."
	}
	return "You must have higher clearance to reach this page."
}

// ActsAsMentor decides which approval stage an approver's decision lands in. A
// superadmin only acts as mentor when the request explicitly asks for it.
func (r Ranks) ActsAsMentor(rank int, mentorOverride bool) bool {
	return rank == r.Mentor || (rank >= r.Superadmin && mentorOverride)
}
