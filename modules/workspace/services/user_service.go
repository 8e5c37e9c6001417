package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var ErrUserNotFound = serrors.NotFound("USER_NOT_FOUND", "user not found")

// UserQuery filters the roster. Query is a fuzzy match against name and email.
type UserQuery struct {
	Query  string
	TeamID uuid.UUID
}

// SubordinateView is one member of a reporting subtree.
type SubordinateView struct {
	User  *hierarchy.User
	Depth int
}

type UserService struct {
	repos      Repositories
	authorizer Authorizer
}

func NewUserService(repos Repositories, authorizer Authorizer) *UserService {
	return &UserService{repos: repos, authorizer: authorizer}
}

// LoadPrincipal reloads role and team of an authenticated user so that demotions apply
// on the next request.
func (s *UserService) LoadPrincipal(ctx context.Context, organizationID, userID uuid.UUID) (hierarchy.Principal, error) {
	u, err := s.repos.Users.GetByID(ctx, organizationID, userID)
	if err != nil {
		return hierarchy.Principal{}, err
	}
	if !u.IsActive {
		return hierarchy.Principal{}, serrors.Unauthenticated("USER_INACTIVE", "unauthenticated")
	}
	return u.Principal(), nil
}

func (s *UserService) List(ctx context.Context, q UserQuery, params ListParams) ([]*hierarchy.User, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, usersAuthzObject, "read"); err != nil {
		return nil, err
	}
	pred, err := scope.Resolve(p, scope.KindUser, scope.Filters{TeamID: q.TeamID})
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return s.repos.Users.List(ctx, pred, params)
	}

	users, err := s.repos.Users.List(ctx, pred, ListParams{})
	if err != nil {
		return nil, err
	}
	return paginate(search(users, query), params), nil
}

// search ranks users by fuzzy distance of query against name and email.
func search(users []*hierarchy.User, query string) []*hierarchy.User {
	words := make([]string, len(users))
	for i, u := range users {
		words[i] = u.Name + " " + u.Email
	}
	ranks := fuzzy.RankFindNormalizedFold(query, words)
	sort.Stable(ranks)

	out := make([]*hierarchy.User, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, users[r.OriginalIndex])
	}
	return out
}

func paginate[T any](items []T, params ListParams) []T {
	if params.Offset > 0 {
		if params.Offset >= len(items) {
			return []T{}
		}
		items = items[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(items) {
		items = items[:params.Limit]
	}
	return items
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*hierarchy.User, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, usersAuthzObject, "read"); err != nil {
		return nil, err
	}
	return s.visible(ctx, p, id)
}

func (s *UserService) visible(ctx context.Context, p hierarchy.Principal, id uuid.UUID) (*hierarchy.User, error) {
	pred, err := scope.Resolve(p, scope.KindUser, scope.Filters{})
	if err != nil {
		return nil, err
	}
	users, err := s.repos.Users.List(ctx, withID(pred, id), ListParams{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

// Subordinates walks the reporting tree below a visible user up to depth levels
// (all levels when depth <= 0) and keeps the members the principal may see.
func (s *UserService) Subordinates(ctx context.Context, id uuid.UUID, depth int) ([]SubordinateView, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, usersAuthzObject, "read"); err != nil {
		return nil, err
	}
	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}

	everyone, err := s.repos.Users.List(ctx, tenant(p.OrganizationID), ListParams{})
	if err != nil {
		return nil, err
	}
	pred, err := scope.Resolve(p, scope.KindUser, scope.Filters{})
	if err != nil {
		return nil, err
	}
	visible, err := s.repos.Users.List(ctx, pred, ListParams{})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*hierarchy.User, len(visible))
	for _, u := range visible {
		byID[u.ID] = u
	}

	tree := hierarchy.NewReportingTree(everyone)
	subs := tree.Subordinates(id, depth)
	out := make([]SubordinateView, 0, len(subs))
	for _, sub := range subs {
		if u, ok := byID[sub.UserID]; ok {
			out = append(out, SubordinateView{User: u, Depth: sub.Depth})
		}
	}
	return out, nil
}
