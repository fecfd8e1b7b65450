package service

import (
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	token, userID := env.register("julia")
	if token == "" || userID == "" {
		t.Fatal("expected token and user ID from Register")
	}

	login := mustCall[api.LoginResponse](env, api.AuthServiceLoginProcedure, "", &api.LoginRequest{
		Email:    "Julia@Example.com",
		Password: testPassword,
	})
	if login.User.ID != userID {
		t.Errorf("login user: expected %s, got %s", userID, login.User.ID)
	}

	me := mustCall[api.GetCurrentUserResponse](env, api.AuthServiceGetCurrentUserProcedure, login.Token, &api.GetCurrentUserRequest{})
	if me.User.Username != "julia" || me.User.Email != "julia@example.com" {
		t.Errorf("unexpected current user: %+v", me.User)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.register("taken")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		want connect.Code
	}{
		{
			name: "weak password",
			req:  &api.RegisterRequest{Email: "a@example.com", Username: "a", FirstName: "A", LastName: "B", Password: "short"},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "bad email",
			req:  &api.RegisterRequest{Email: "not-an-email", Username: "b", FirstName: "A", LastName: "B", Password: testPassword},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "missing username",
			req:  &api.RegisterRequest{Email: "c@example.com", FirstName: "A", LastName: "B", Password: testPassword},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "duplicate email",
			req:  &api.RegisterRequest{Email: "taken@example.com", Username: "other", FirstName: "A", LastName: "B", Password: testPassword},
			want: connect.CodeAlreadyExists,
		},
		{
			name: "duplicate username",
			req:  &api.RegisterRequest{Email: "fresh@example.com", Username: "taken", FirstName: "A", LastName: "B", Password: testPassword},
			want: connect.CodeAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call[api.RegisterResponse](env, api.AuthServiceRegisterProcedure, "", tt.req)
			assertCode(t, err, tt.want)
		})
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register("julia")

	_, err := call[api.LoginResponse](env, api.AuthServiceLoginProcedure, "", &api.LoginRequest{
		Email:    "julia@example.com",
		Password: "wrong-password",
	})
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGetCurrentUser_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	_, err := call[api.GetCurrentUserResponse](env, api.AuthServiceGetCurrentUserProcedure, "", &api.GetCurrentUserRequest{})
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = call[api.GetCurrentUserResponse](env, api.AuthServiceGetCurrentUserProcedure, "forged", &api.GetCurrentUserRequest{})
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestBlockedUserIsLockedOut(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin()
	token, userID := env.register("spammer")

	mustCall[api.BlockUserResponse](env, api.UserServiceBlockUserProcedure, admin, &api.BlockUserRequest{UserID: userID, Blocked: true})

	_, err := call[api.LoginResponse](env, api.AuthServiceLoginProcedure, "", &api.LoginRequest{
		Email:    "spammer@example.com",
		Password: testPassword,
	})
	assertCode(t, err, connect.CodePermissionDenied)

	// Tokens issued before the block stop working too.
	_, err = call[api.GetCurrentUserResponse](env, api.AuthServiceGetCurrentUserProcedure, token, &api.GetCurrentUserRequest{})
	assertCode(t, err, connect.CodePermissionDenied)

	mustCall[api.BlockUserResponse](env, api.UserServiceBlockUserProcedure, admin, &api.BlockUserRequest{UserID: userID, Blocked: false})
	mustCall[api.LoginResponse](env, api.AuthServiceLoginProcedure, "", &api.LoginRequest{
		Email:    "spammer@example.com",
		Password: testPassword,
	})
}
