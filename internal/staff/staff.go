package staff

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMemberNotFound     = errors.New("staff member not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidMember      = errors.New("invalid staff member")
)

const minPasswordLength = 8

// Member is a staff account. The password hash never leaves the package.
type Member struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Branch    string    `json:"branch"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	hash []byte
}

type NewMember struct {
	Name     string
	Email    string
	Password string
	Role     string
	Branch   string
}

// RoleChecker reports whether a role id exists.
// Satisfied by *rbac.Manager via RoleExists; narrow interface for testability.
type RoleChecker interface {
	RoleExists(id string) bool
}

// Directory keeps staff accounts keyed by lower-cased email.
type Directory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Member
	byEmail map[string]uuid.UUID
	roles   RoleChecker
	cost    int
}

// NewDirectory returns an empty directory. roles may be nil to accept any role.
func NewDirectory(roles RoleChecker) *Directory {
	return &Directory{
		byID:    make(map[uuid.UUID]*Member),
		byEmail: make(map[string]uuid.UUID),
		roles:   roles,
		cost:    bcrypt.DefaultCost,
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *Directory) Add(m NewMember) (Member, error) {
	name := strings.TrimSpace(m.Name)
	email := normaliseEmail(m.Email)
	role := strings.TrimSpace(m.Role)
	branch := strings.TrimSpace(m.Branch)

	switch {
	case name == "":
		return Member{}, fmt.Errorf("%w: name is required", ErrInvalidMember)
	case !strings.Contains(email, "@"):
		return Member{}, fmt.Errorf("%w: valid email is required", ErrInvalidMember)
	case len(m.Password) < minPasswordLength:
		return Member{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidMember, minPasswordLength)
	case role == "":
		return Member{}, fmt.Errorf("%w: role is required", ErrInvalidMember)
	case branch == "":
		return Member{}, fmt.Errorf("%w: branch is required", ErrInvalidMember)
	}
	if d.roles != nil && !d.roles.RoleExists(role) {
		return Member{}, fmt.Errorf("%w: unknown role %q", ErrInvalidMember, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(m.Password), d.cost)
	if err != nil {
		return Member{}, fmt.Errorf("hash password: %w", err)
	}

	member := &Member{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		Branch:    branch,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		hash:      hash,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.byEmail[email]; taken {
		return Member{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	d.byID[member.ID] = member
	d.byEmail[email] = member.ID
	return *member, nil
}

// Authenticate checks email and password. Unknown emails, wrong passwords and
// deactivated accounts all return ErrInvalidCredentials.
func (d *Directory) Authenticate(email, password string) (Member, error) {
	d.mu.RLock()
	id, ok := d.byEmail[normaliseEmail(email)]
	var m Member
	if ok {
		m = *d.byID[id]
	}
	d.mu.RUnlock()

	if !ok || !m.Active {
		return Member{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.hash, []byte(password)); err != nil {
		return Member{}, ErrInvalidCredentials
	}
	return m, nil
}

func (d *Directory) Get(id uuid.UUID) (Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byID[id]
	if !ok {
		return Member{}, ErrMemberNotFound
	}
	return *m, nil
}

// List returns active members sorted by name. An empty branch lists every branch.
func (d *Directory) List(branch string) []Member {
	d.mu.RLock()
	out := make([]Member, 0, len(d.byID))
	for _, m := range d.byID {
		if !m.Active {
			continue
		}
		if branch != "" && !strings.EqualFold(m.Branch, branch) {
			continue
		}
		out = append(out, *m)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Email < out[j].Email
	})
	return out
}

// Deactivate disables login for a member. The email stays reserved.
func (d *Directory) Deactivate(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.byID[id]
	if !ok || !m.Active {
		return ErrMemberNotFound
	}
	m.Active = false
	return nil
}
