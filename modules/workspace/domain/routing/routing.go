package routing

import (
	"sort"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
)

// Candidates keeps the active employees and managers in the requester's organization and team.
func Candidates(requester hierarchy.Principal, users []*hierarchy.User) []*hierarchy.User {
	out := make([]*hierarchy.User, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		if u.OrganizationID != requester.OrganizationID || u.TeamID != requester.TeamID {
			continue
		}
		if u.Role != hierarchy.RoleEmployee && u.Role != hierarchy.RoleManager {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Rank orders candidates by rating, then availability. Ties keep input order.
func Rank(candidates []*hierarchy.User) []*hierarchy.User {
	ranked := make([]*hierarchy.User, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Performance.RatingValue(), ranked[j].Performance.RatingValue()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].IsAvailable && !ranked[j].IsAvailable
	})
	return ranked
}

// SelectAssignee picks the best ranked available candidate, then the best ranked one,
// then the requester.
func SelectAssignee(requester *hierarchy.User, candidates []*hierarchy.User) *hierarchy.User {
	ranked := Rank(candidates)
	for _, u := range ranked {
		if u.IsAvailable {
			return u
		}
	}
	if len(ranked) > 0 {
		return ranked[0]
	}
	return requester
}
