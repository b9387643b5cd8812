package rbac

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
)

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleExists         = errors.New("role already exists")
	ErrBuiltInRole        = errors.New("built-in roles cannot be deleted")
	ErrNameRequired       = errors.New("role name is required")
	ErrInvalidPage        = errors.New("invalid page")
	ErrInvalidAccessLevel = errors.New("invalid access level")
)

type Permission struct {
	PageID      string `json:"page_id"`
	AccessLevel string `json:"access_level"`
}

type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	BuiltIn     bool         `json:"built_in"`
	Permissions []Permission `json:"permissions"`
}

// Access returns the role's level for a page, HIDDEN when unset.
func (r Role) Access(pageID string) string {
	for _, p := range r.Permissions {
		if p.PageID == pageID {
			return p.AccessLevel
		}
	}
	return enum.AccessHidden
}

func (r Role) clone() Role {
	r.Permissions = append([]Permission(nil), r.Permissions...)
	return r
}

// Slugify lower-cases and trims name and collapses every run of characters
// other than a-z and 0-9 into a single "-".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Manager holds the role list. Safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	roles map[string]*Role
	ids   []string
}

// NewManager returns a manager seeded with the built-in roles.
func NewManager() *Manager {
	m := &Manager{roles: make(map[string]*Role)}
	for _, r := range builtInRoles() {
		r := r
		m.roles[r.ID] = &r
		m.ids = append(m.ids, r.ID)
	}
	return m
}

func (m *Manager) List() []Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Role, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.roles[id].clone())
	}
	return out
}

func (m *Manager) Get(id string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return r.clone(), nil
}

func (m *Manager) RoleExists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.roles[id]
	return ok
}

// Create adds a custom role whose id is the slug of name. Pages missing from
// perms are HIDDEN.
func (m *Manager) Create(name string, perms map[string]string) (Role, error) {
	name = strings.TrimSpace(name)
	id := Slugify(name)
	if id == "" {
		return Role{}, ErrNameRequired
	}

	levels := make(map[string]string, len(perms))
	for page, level := range perms {
		norm, err := validate(page, level)
		if err != nil {
			return Role{}, err
		}
		levels[page] = norm
	}

	role := Role{ID: id, Name: name, Permissions: matrix(levels)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.roles[id]; exists {
		return Role{}, fmt.Errorf("%w: %q", ErrRoleExists, id)
	}
	m.roles[id] = &role
	m.ids = append(m.ids, id)
	return role.clone(), nil
}

// SetAccess replaces one page's level on a role.
func (m *Manager) SetAccess(roleID, pageID, level string) (Role, error) {
	norm, err := validate(pageID, level)
	if err != nil {
		return Role{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[roleID]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	for i := range r.Permissions {
		if r.Permissions[i].PageID == pageID {
			r.Permissions[i].AccessLevel = norm
			return r.clone(), nil
		}
	}
	r.Permissions = append(r.Permissions, Permission{PageID: pageID, AccessLevel: norm})
	return r.clone(), nil
}

// Delete removes a custom role. Built-in roles are rejected.
func (m *Manager) Delete(roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[roleID]
	if !ok {
		return ErrRoleNotFound
	}
	if r.BuiltIn {
		return ErrBuiltInRole
	}
	delete(m.roles, roleID)
	for i, id := range m.ids {
		if id == roleID {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return nil
}

// Allows reports whether roleID has at least the given access to pageID.
// Unknown roles are denied.
func (m *Manager) Allows(roleID, pageID, atLeast string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[roleID]
	if !ok || enum.AccessRank(atLeast) < 0 {
		return false
	}
	return enum.AccessRank(r.Access(pageID)) >= enum.AccessRank(atLeast)
}

func validate(pageID, level string) (string, error) {
	if !enum.IsValidPage(pageID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPage, pageID)
	}
	norm := strings.ToUpper(strings.TrimSpace(level))
	if enum.AccessRank(norm) < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccessLevel, level)
	}
	return norm, nil
}

func matrix(levels map[string]string) []Permission {
	out := make([]Permission, 0, len(enum.Pages))
	for _, page := range enum.Pages {
		level, ok := levels[page]
		if !ok {
			level = enum.AccessHidden
		}
		out = append(out, Permission{PageID: page, AccessLevel: level})
	}
	return out
}

func builtInRoles() []Role {
	all := func(level string) map[string]string {
		m := make(map[string]string, len(enum.Pages))
		for _, p := range enum.Pages {
			m[p] = level
		}
		return m
	}

	manager := all(enum.AccessFull)
	manager[enum.PageEmployees] = enum.AccessEdit
	manager[enum.PageRoles] = enum.AccessReadOnly
	manager[enum.PageSettings] = enum.AccessEdit

	return []Role{
		{ID: enum.RoleAdmin, Name: "Admin", BuiltIn: true, Permissions: matrix(all(enum.AccessFull))},
		{ID: enum.RoleManager, Name: "Manager", BuiltIn: true, Permissions: matrix(manager)},
		{ID: enum.RoleCashier, Name: "Cashier", BuiltIn: true, Permissions: matrix(map[string]string{
			enum.PageDashboard:    enum.AccessReadOnly,
			enum.PageMenu:         enum.AccessReadOnly,
			enum.PagePOS:          enum.AccessFull,
			enum.PageOrders:       enum.AccessEdit,
			enum.PageKitchen:      enum.AccessReadOnly,
			enum.PageReservations: enum.AccessEdit,
			enum.PageReports:      enum.AccessReadOnly,
		})},
		{ID: enum.RoleChef, Name: "Chef", BuiltIn: true, Permissions: matrix(map[string]string{
			enum.PageDashboard:  enum.AccessReadOnly,
			enum.PageMenu:       enum.AccessReadOnly,
			enum.PageCategories: enum.AccessReadOnly,
			enum.PageOrders:     enum.AccessReadOnly,
			enum.PageKitchen:    enum.AccessFull,
		})},
		{ID: enum.RoleWaiter, Name: "Waiter", BuiltIn: true, Permissions: matrix(map[string]string{
			enum.PageDashboard:    enum.AccessReadOnly,
			enum.PageMenu:         enum.AccessReadOnly,
			enum.PagePOS:          enum.AccessEdit,
			enum.PageOrders:       enum.AccessEdit,
			enum.PageKitchen:      enum.AccessReadOnly,
			enum.PageReservations: enum.AccessEdit,
		})},
	}
}
