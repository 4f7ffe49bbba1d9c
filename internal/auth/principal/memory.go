package principal

import (
	"context"
	"fmt"
	"os"
	"sync"

	"auth-gateway/internal/auth"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// MemoryStore is a map-backed Store, seeded from a YAML file in
// deployments without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]auth.Principal
}

func NewMemoryStore(principals ...auth.Principal) (*MemoryStore, error) {
	s := &MemoryStore{byEmail: make(map[string]auth.Principal, len(principals))}
	for _, p := range principals {
		if err := s.put(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type seedFile struct {
	Principals []struct {
		ID          string   `yaml:"id"`
		Email       string   `yaml:"email"`
		DisplayName string   `yaml:"display_name"`
		Roles       []string `yaml:"roles"`
	} `yaml:"principals"`
}

// LoadFile builds a MemoryStore from a YAML document of the form
//
//	principals:
//	  - email: a@x.com
//	    display_name: Alice
//	    roles: [USER]
//
// Principals without an id get a random UUID.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("principal: read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("principal: parse seed file: %w", err)
	}

	list := make([]auth.Principal, 0, len(f.Principals))
	for _, sp := range f.Principals {
		id := sp.ID
		if id == "" {
			id = uuid.NewString()
		}
		list = append(list, auth.Principal{
			ID:          id,
			Email:       sp.Email,
			DisplayName: sp.DisplayName,
			Roles:       auth.NewRoleSet(sp.Roles...),
		})
	}

	return NewMemoryStore(list...)
}

func (s *MemoryStore) put(p auth.Principal) error {
	if p.Email == "" || p.DisplayName == "" {
		return fmt.Errorf("principal: email and display name are required (id=%q)", p.ID)
	}
	if _, dup := s.byEmail[p.Email]; dup {
		return fmt.Errorf("principal: duplicate email %q", p.Email)
	}
	p.Roles = p.Roles.Clone()
	s.byEmail[p.Email] = p
	return nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	p, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	// hand out a copy so callers cannot mutate the stored roles
	p.Roles = p.Roles.Clone()
	return &p, nil
}
