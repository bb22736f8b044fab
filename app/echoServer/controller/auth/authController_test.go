package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booklending/model"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type svcMock struct {
	registerFn func(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	loginFn    func(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

func (m *svcMock) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	return m.registerFn(ctx, req)
}

func (m *svcMock) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	return m.loginFn(ctx, req)
}

func (m *svcMock) Me(ctx context.Context, userID int64) (*model.User, error) { return nil, nil }

func (m *svcMock) Users(ctx context.Context) ([]model.User, error) { return nil, nil }

func (m *svcMock) SetRole(ctx context.Context, userID int64, role string) error { return nil }

func newController(m *svcMock) *Controller {
	return &Controller{Svc: m, V: validator.New(), Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func doJSON(h echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRegister_ReturnsToken(t *testing.T) {
	m := &svcMock{
		registerFn: func(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
			return &model.User{ID: 1, Email: req.Email, Username: req.Username, Role: model.RoleUser}, "tok-abc", nil
		},
	}

	rec, err := doJSON(newController(m).Register,
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","username":"ada","password":"supersecret"}`)

	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "tok-abc")
}

func TestRegister_InvalidBody(t *testing.T) {
	_, err := doJSON(newController(&svcMock{}).Register, `{"email":"not-an-email"}`)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}
