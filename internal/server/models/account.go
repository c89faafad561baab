// Package models contains the server-side records handled by tenantkeeper.
package models

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Role is the authority granted to an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account is a tenant's identity record. Username is the primary identity and
// also the name of the tenant's database schema; it is case-sensitive and is
// never validated here. Password is opaque credential material.
type Account struct {
	ID        string
	Username  string
	Password  string
	Role      Role
	CreatedAt time.Time

	materialized atomic.Bool
}

// NewAccount builds an unsaved, uninitialized account with a fresh ID.
func NewAccount(username, password string, role Role) *Account {
	if role == "" {
		role = RoleUser
	}
	return &Account{
		ID:       uuid.NewString(),
		Username: username,
		Password: password,
		Role:     role,
	}
}

// Materialize moves the account from Uninitialized to Initialized so it can be
// used as an authentication principal. Repeated and concurrent calls are safe
// and leave the same observable state.
func (a *Account) Materialize() {
	a.materialized.Store(true)
}

// Materialized reports whether Materialize has run on this value.
func (a *Account) Materialized() bool {
	return a.materialized.Load()
}

// Authorities lists the granted authorities of a materialized account; it is
// empty until Materialize has been called.
func (a *Account) Authorities() []string {
	if !a.Materialized() {
		return nil
	}
	return []string{"ROLE_" + string(a.Role)}
}
