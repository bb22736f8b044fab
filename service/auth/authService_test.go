// service/auth/auth_service_test.go
package auth

import (
	"context"
	"testing"

	"booklending/model"
	authrepo "booklending/repository/auth"
	"booklending/util/hash"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
	createFn  func(ctx context.Context, u *model.User) error
	listFn    func(ctx context.Context) ([]model.User, error)
	setRoleFn func(ctx context.Context, id int64, role string) error
}

var _ authrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) List(ctx context.Context) ([]model.User, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *mockRepo) SetRole(ctx context.Context, id int64, role string) error {
	if m.setRoleFn == nil {
		return nil
	}
	return m.setRoleFn(ctx, id, role)
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret")

	req := model.RegisterReq{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "USER@Example.COM",
		Username:  "ada",
		Password:  "supersecret",
	}

	u, tok, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, "ada", u.Username)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEmpty(t, u.PasswordHash)
}

func TestRegister_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Email:    " ",
		Username: "u",
		Password: "123",
	})
	require.Error(t, err)
	require.Equal(t, ErrBadInput, Code(err))
}

func TestRegister_EmailTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_email_key",
			}
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "taken@example.com",
		Username:  "ada",
		Password:  "supersecret",
	})
	require.Equal(t, ErrEmailTaken, Code(err))
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_username_key",
			}
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "new@example.com",
		Username:  "taken",
		Password:  "supersecret",
	})
	require.Equal(t, ErrUsernameTaken, Code(err))
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	hashed, err := hash.HashPassword("supersecret")
	require.NoError(t, err)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, Role: model.RoleUser, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret")

	_, tok, err := svc.Login(ctx, model.LoginReq{Email: "u@example.com", Password: "supersecret"})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	hashed, err := hash.HashPassword("supersecret")
	require.NoError(t, err)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret")

	_, _, err = svc.Login(ctx, model.LoginReq{Email: "u@example.com", Password: "nope"})
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "ghost@example.com", Password: "whatever"})
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestMe_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Email: "u@example.com", Username: "u", Role: model.RoleUser}, nil
		},
	}
	svc := New(m, "test-secret")

	u, err := svc.Me(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
}

func TestMe_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	_, err := svc.Me(ctx, 99)
	require.Equal(t, ErrUserNotFound, Code(err))
}

func TestSetRole_Validation(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	require.Equal(t, ErrBadInput, Code(svc.SetRole(ctx, 1, "superuser")))
	require.NoError(t, svc.SetRole(ctx, 1, model.RoleAdmin))
}

func TestSetRole_UserNotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		setRoleFn: func(ctx context.Context, id int64, role string) error {
			return pgx.ErrNoRows
		},
	}
	svc := New(m, "test-secret")

	require.Equal(t, ErrUserNotFound, Code(svc.SetRole(ctx, 9, model.RoleUser)))
}
