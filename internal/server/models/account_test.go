package models

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	a := NewAccount("用户名测试αβγ", "pw", "")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "用户名测试αβγ", a.Username)
	assert.Equal(t, "pw", a.Password)
	assert.Equal(t, RoleUser, a.Role)
	assert.False(t, a.Materialized())
	assert.Empty(t, a.Authorities())

	admin := NewAccount("root", "pw", RoleAdmin)
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.NotEqual(t, a.ID, admin.ID)
}

func TestAccount_MaterializeIsIdempotent(t *testing.T) {
	a := NewAccount("bob", "pw", RoleUser)

	a.Materialize()
	first := a.Authorities()
	a.Materialize()

	assert.True(t, a.Materialized())
	assert.Equal(t, []string{"ROLE_USER"}, first)
	assert.Equal(t, first, a.Authorities())
}

func TestAccount_MaterializeConcurrent(t *testing.T) {
	a := NewAccount("concurrentuser", "pw", RoleAdmin)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Materialize()
			_ = a.Authorities()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"ROLE_ADMIN"}, a.Authorities())
}

func TestNewProgressRecord(t *testing.T) {
	p := NewProgressRecord("carol")
	_, err := uuid.Parse(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", p.Username)
}
