package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// Like the real store, it enforces unique usernames and GitHub IDs.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by internal ID
	nextID int
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username || (user.GitHubID != 0 && u.GitHubID == user.GitHubID) {
			return apperror.Conflict("user", "User already exists")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id }, id)
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == username }, username)
}

func (f *fakeUserRepo) GetUserByGitHubID(_ context.Context, id int64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.GitHubID == id }, fmt.Sprint(id))
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// newTestAuthService wires an AuthService with the fake repo and a cheap
// bcrypt cost so each hash takes milliseconds.
func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	return NewAuthService(repo, auth.NewPasswordServiceForTest(4), testLogger()), repo
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc, repo := newTestAuthService(t)

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" {
		t.Error("Register() did not return an ID")
	}
	if user.PasswordHash == "" || user.PasswordHash == "s3cret" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", user.PasswordHash)
	}
	if repo.count() != 1 {
		t.Errorf("stored users = %d, want 1", repo.count())
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, repo := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "first"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "second")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if err.Error() != "User already exists" {
		t.Errorf("message = %q, want %q", err.Error(), "User already exists")
	}
	if repo.count() != 1 {
		t.Errorf("stored users = %d, want 1", repo.count())
	}
}

func TestRegister_ConcurrentDuplicatesLeaveOneUser(t *testing.T) {
	svc, repo := newTestAuthService(t)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "race", "pw")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, apperror.ErrConflict):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || repo.count() != 1 {
		t.Errorf("succeeded = %d, stored = %d, want 1 and 1", succeeded, repo.count())
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{"missing username", "", "pw", "Username is required"},
		{"blank username", "   ", "pw", "Username is required"},
		{"missing password", "alice", "", "Password is required"},
		{"username too long", strings.Repeat("u", MaxUsernameLength+1), "pw", "Username must be 64 characters or less"},
		{"password too long", "alice", strings.Repeat("p", auth.MaxPasswordBytes+1), "Password must be 72 bytes or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestAuthService(t)

			_, err := svc.Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
			if repo.count() != 0 {
				t.Error("invalid registration was stored")
			}
		})
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	svc, repo := newTestAuthService(t)
	repo.getErr = errors.New("db down")

	_, err := svc.Register(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("error = %v, want a plain store error", err)
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registered, err := svc.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user = %q, want %q", user.ID, registered.ID)
	}
}

func TestLogin_WrongPasswordAndUnknownUserLookTheSame(t *testing.T) {
	svc, _ := newTestAuthService(t)
	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPw := svc.Login(context.Background(), "alice", "nope")
	_, noUser := svc.Login(context.Background(), "mallory", "s3cret")

	for _, err := range []error{wrongPw, noUser} {
		if !errors.Is(err, apperror.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	}
	if wrongPw.Error() != noUser.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPw.Error(), noUser.Error())
	}
	if wrongPw.Error() != "Invalid username or password" {
		t.Errorf("message = %q", wrongPw.Error())
	}
}

func TestLogin_GitHubAccountHasNoPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	if _, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "octocat"}); err != nil {
		t.Fatalf("LoginWithGitHub() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "octocat", "")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	svc, repo := newTestAuthService(t)
	repo.getErr = errors.New("db down")

	_, err := svc.Login(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("error = %v, want a plain store error", err)
	}
}

// =========================================================================
// GITHUB TESTS
// =========================================================================

func TestLoginWithGitHub_CreatesThenReuses(t *testing.T) {
	svc, repo := newTestAuthService(t)
	gh := &auth.GitHubUser{ID: 583231, Login: "octocat"}

	first, err := svc.LoginWithGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("first LoginWithGitHub() error = %v", err)
	}
	if first.Username != "octocat" || first.GitHubID != 583231 {
		t.Errorf("user = %+v", first)
	}

	second, err := svc.LoginWithGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("second LoginWithGitHub() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second sign-in created a new user: %q vs %q", second.ID, first.ID)
	}
	if repo.count() != 1 {
		t.Errorf("stored users = %d, want 1", repo.count())
	}
}

func TestLoginWithGitHub_UsernameTakenLocally(t *testing.T) {
	svc, _ := newTestAuthService(t)
	if _, err := svc.Register(context.Background(), "octocat", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "octocat"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestLoginWithGitHub_NilProfile(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.LoginWithGitHub(context.Background(), nil); err == nil {
		t.Fatal("LoginWithGitHub(nil) should fail")
	}
}

func TestGetUserByID(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registered, _ := svc.Register(context.Background(), "alice", "pw")

	user, err := svc.GetUserByID(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q", user.Username)
	}

	if _, err := svc.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
