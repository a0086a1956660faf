package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcart/groupbuy-backend/internal/users"
	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/db"
	"github.com/streetcart/groupbuy-backend/pkg/db/dbtest"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newRegisterService(t *testing.T) (RegisterService, *users.Repository) {
	t.Helper()
	conn := dbtest.NewSQLite(t)
	svc, err := NewRegisterService(RegisterServiceParams{DB: db.FromGorm(conn), PasswordConfig: testPasswordCfg})
	require.NoError(t, err)
	return svc, users.NewRepository(conn)
}

func TestRegisterCreatesUser(t *testing.T) {
	svc, repo := newRegisterService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterRequest{
		Name:     " Sunita ",
		Email:    " Sunita@Example.com ",
		Password: "tandoor-2026",
		Role:     enums.UserRoleSupplier,
	})
	require.NoError(t, err)
	assert.Equal(t, "sunita@example.com", created.Email)
	assert.Equal(t, "Sunita", created.Name)
	assert.Equal(t, enums.UserRoleSupplier, created.Role)

	stored, err := repo.FindByEmail(ctx, "sunita@example.com")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("tandoor-2026", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc, _ := newRegisterService(t)
	ctx := context.Background()

	cases := map[string]RegisterRequest{
		"missing email": {Name: "A", Password: "long-enough", Role: enums.UserRoleVendor},
		"missing name":  {Email: "a@example.com", Password: "long-enough", Role: enums.UserRoleVendor},
		"bad role":      {Name: "A", Email: "a@example.com", Password: "long-enough", Role: "admin"},
		"short":         {Name: "A", Email: "a@example.com", Password: "short", Role: enums.UserRoleVendor},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, req)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newRegisterService(t)
	ctx := context.Background()
	req := RegisterRequest{Name: "Imran", Email: "imran@example.com", Password: "kebab-roll", Role: enums.UserRoleVendor}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "IMRAN@example.com"
	_, err = svc.Register(ctx, req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestNewRegisterServiceRequiresDB(t *testing.T) {
	_, err := NewRegisterService(RegisterServiceParams{})
	assert.Error(t, err)
}
