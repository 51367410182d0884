package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fishlog/fishlog-backend/internal/repository"
)

// memStore keeps users, groups and invitations in memory so scenario tests
// can run the group and invitation services end to end.
type memStore struct {
	mu          sync.Mutex
	seq         int
	users       map[string]*repository.User
	tokens      map[string]*repository.RefreshToken
	groups      map[string]*repository.Group
	invitations map[string]*repository.Invitation
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*repository.User{},
		tokens:      map[string]*repository.RefreshToken{},
		groups:      map[string]*repository.Group{},
		invitations: map[string]*repository.Invitation{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) addUser(id, name, addr string) *repository.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &repository.User{ID: id, Name: name, Email: addr, CreatedAt: time.Now()}
	m.users[id] = u
	return u
}

func (m *memStore) Users() repository.UserRepository             { return memUsers{m} }
func (m *memStore) Groups() repository.GroupRepository           { return memGroups{m} }
func (m *memStore) Invitations() repository.InvitationRepository { return memInvitations{m} }

func cloneGroup(g *repository.Group) *repository.Group {
	c := *g
	c.Admins = append([]string{}, g.Admins...)
	c.Members = append([]string{}, g.Members...)
	return &c
}

func cloneInvitation(i *repository.Invitation) *repository.Invitation {
	c := *i
	return &c
}

// ---- users ----

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, user *repository.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = r.m.nextID("u")
	}
	c := *user
	r.m.users[user.ID] = &c
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r memUsers) FindByEmail(ctx context.Context, addr string) (*repository.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, addr) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r memUsers) FindByIDs(ctx context.Context, ids []string) ([]*repository.User, error) {
	var out []*repository.User
	for _, id := range ids {
		if u, _ := r.FindByID(ctx, id); u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) FindAll(ctx context.Context) ([]*repository.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*repository.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Update(ctx context.Context, user *repository.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *user
	r.m.users[user.ID] = &c
	return nil
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.users, id)
	for _, g := range r.m.groups {
		g.Members = without(g.Members, id)
	}
	return nil
}

func (r memUsers) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *token
	r.m.tokens[token.Token] = &c
	return nil
}

func (r memUsers) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if t, ok := r.m.tokens[token]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r memUsers) DeleteRefreshToken(ctx context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.tokens, token)
	return nil
}

func (r memUsers) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k, t := range r.m.tokens {
		if t.UserID == userID {
			delete(r.m.tokens, k)
		}
	}
	return nil
}

// ---- groups ----

type memGroups struct{ m *memStore }

func (r memGroups) Create(ctx context.Context, group *repository.Group) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	group.ID = r.m.nextID("g")
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	r.m.groups[group.ID] = cloneGroup(group)
	return nil
}

func (r memGroups) FindByID(ctx context.Context, id string) (*repository.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if g, ok := r.m.groups[id]; ok {
		return cloneGroup(g), nil
	}
	return nil, nil
}

func (r memGroups) FindByUserID(ctx context.Context, userID string) ([]*repository.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*repository.Group
	for _, g := range r.m.groups {
		if g.IsMember(userID) {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memGroups) FindAll(ctx context.Context) ([]*repository.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*repository.Group
	for _, g := range r.m.groups {
		out = append(out, cloneGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memGroups) FindMembers(ctx context.Context, groupID string) ([]*repository.GroupMember, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[groupID]
	if !ok {
		return nil, nil
	}
	out := []*repository.GroupMember{}
	for _, id := range g.Members {
		if u, ok := r.m.users[id]; ok {
			out = append(out, &repository.GroupMember{UserID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar})
		}
	}
	return out, nil
}

func (r memGroups) Update(ctx context.Context, group *repository.Group) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[group.ID]
	if !ok {
		return nil
	}
	g.Name = group.Name
	g.Description = group.Description
	return nil
}

func (r memGroups) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.groups, id)
	for k, inv := range r.m.invitations {
		if inv.GroupID == id {
			delete(r.m.invitations, k)
		}
	}
	return nil
}

func (r memGroups) AddMember(ctx context.Context, groupID, userID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.addMember(groupID, userID), nil
}

func (m *memStore) addMember(groupID, userID string) bool {
	g, ok := m.groups[groupID]
	if !ok || g.IsMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

func (r memGroups) RemoveMember(ctx context.Context, groupID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[groupID]
	if !ok {
		return nil
	}
	if err := r.m.dropAdmin(g, userID); err != nil {
		return err
	}
	g.Members = without(g.Members, userID)
	return nil
}

func (r memGroups) AddAdmin(ctx context.Context, groupID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if g, ok := r.m.groups[groupID]; ok && !g.IsAdmin(userID) {
		g.Admins = append(g.Admins, userID)
	}
	return nil
}

func (r memGroups) RemoveAdmin(ctx context.Context, groupID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if g, ok := r.m.groups[groupID]; ok {
		return r.m.dropAdmin(g, userID)
	}
	return nil
}

func (m *memStore) dropAdmin(g *repository.Group, userID string) error {
	if g.IsAdmin(userID) && len(g.Admins) == 1 {
		return repository.ErrSoleAdmin
	}
	g.Admins = without(g.Admins, userID)
	return nil
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (r memGroups) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[groupID]
	return ok && g.IsMember(userID), nil
}

func (r memGroups) HasMemberWithEmail(ctx context.Context, groupID, addr string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[groupID]
	if !ok {
		return false, nil
	}
	for _, id := range g.Members {
		if u, ok := r.m.users[id]; ok && strings.EqualFold(u.Email, addr) {
			return true, nil
		}
	}
	return false, nil
}

// ---- invitations ----

type memInvitations struct{ m *memStore }

func (r memInvitations) Create(ctx context.Context, inv *repository.Invitation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.invitations {
		if existing.IsPending() && existing.GroupID == inv.GroupID && strings.EqualFold(existing.Email, inv.Email) {
			return repository.ErrDuplicate
		}
	}
	inv.ID = r.m.nextID("i")
	if inv.Status == "" {
		inv.Status = repository.InvitationPending
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	r.m.invitations[inv.ID] = cloneInvitation(inv)
	return nil
}

func (r memInvitations) FindByID(ctx context.Context, id string) (*repository.Invitation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if inv, ok := r.m.invitations[id]; ok {
		return cloneInvitation(inv), nil
	}
	return nil, nil
}

func (r memInvitations) FindPending(ctx context.Context, addr, groupID string) (*repository.Invitation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, inv := range r.m.invitations {
		if inv.IsPending() && inv.GroupID == groupID && strings.EqualFold(inv.Email, addr) {
			return cloneInvitation(inv), nil
		}
	}
	return nil, nil
}

func (r memInvitations) FindPendingByEmail(ctx context.Context, addr string, now time.Time) ([]*repository.Invitation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*repository.Invitation{}
	for _, inv := range r.m.invitations {
		if inv.IsPending() && !inv.IsExpired(now) && strings.EqualFold(inv.Email, addr) {
			out = append(out, cloneInvitation(inv))
		}
	}
	return out, nil
}

func (r memInvitations) FindByGroup(ctx context.Context, groupID string) ([]*repository.Invitation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*repository.Invitation{}
	for _, inv := range r.m.invitations {
		if inv.GroupID == groupID {
			out = append(out, cloneInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memInvitations) resolve(id, userID string, status repository.InvitationStatus) error {
	inv, ok := r.m.invitations[id]
	if !ok || !inv.IsPending() {
		return repository.ErrInvitationNotPending
	}
	inv.Status = status
	inv.UserID = &userID
	inv.UpdatedAt = time.Now()
	return nil
}

func (r memInvitations) Accept(ctx context.Context, id, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.resolve(id, userID, repository.InvitationAccepted); err != nil {
		return err
	}
	r.m.addMember(r.m.invitations[id].GroupID, userID)
	return nil
}

func (r memInvitations) Decline(ctx context.Context, id, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.resolve(id, userID, repository.InvitationDeclined)
}

func (r memInvitations) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.invitations, id)
	return nil
}

func (r memInvitations) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for k, inv := range r.m.invitations {
		if inv.IsPending() && inv.ExpiresAt.Before(before) {
			delete(r.m.invitations, k)
			n++
		}
	}
	return n, nil
}
