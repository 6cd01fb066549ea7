// Package session tracks who is signed in and what they are looking at, on
// top of the persisted ledger snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/state"
)

var (
	ErrInvalidCredentials = errors.New("username and password are required")
	ErrInvalidSignUp      = errors.New("name, a valid email and password are required")
	ErrUnauthenticated    = errors.New("not signed in")
)

// EmailDomain is appended to the username of a mock login.
const EmailDomain = "cashflow.app"

// Options configure a Session. Zero values pick sensible defaults.
type Options struct {
	// Delay simulates authentication latency before login and signup apply.
	Delay  time.Duration
	Env    func(*core.User) ledger.Env
	Logger *slog.Logger
}

// Session is the state machine unauthenticated -> authenticated(no business)
// -> authenticated(active business, view).
type Session struct {
	store  *state.Store
	delay  time.Duration
	newEnv func(*core.User) ledger.Env
	logger *slog.Logger

	mu   sync.Mutex
	view View

	unsubscribe func()
}

// Status is a point-in-time view of the session.
type Status struct {
	Authenticated    bool
	User             *core.User
	ActiveBusinessID string
	View             View
}

// New attaches a session to store and keeps the active selection consistent
// with every later change.
func New(ctx context.Context, store *state.Store, opts Options) *Session {
	if opts.Env == nil {
		opts.Env = ledger.NewEnv
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{
		store:  store,
		delay:  opts.Delay,
		newEnv: opts.Env,
		logger: opts.Logger.With("component", "session"),
		view:   Dashboard{},
	}
	s.unsubscribe = store.Subscribe(func(st core.State) { s.reconcile(context.Background(), st) })
	s.reconcile(ctx, store.Snapshot())
	return s
}

// Close detaches the session from the store.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Env returns the command environment for the signed-in user.
func (s *Session) Env() ledger.Env {
	return s.newEnv(s.store.Snapshot().CurrentUser)
}

// EnvFor returns the command environment for user.
func (s *Session) EnvFor(user *core.User) ledger.Env {
	return s.newEnv(user)
}

func (s *Session) Status() Status {
	st := s.store.Snapshot()
	return Status{
		Authenticated:    st.CurrentUser != nil,
		User:             st.CurrentUser,
		ActiveBusinessID: st.ActiveBusinessID,
		View:             s.View(),
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// ActiveBook returns the book the current view is scoped to, if any.
func (s *Session) ActiveBook() string {
	return BookOf(s.View())
}

// LoginAsync starts a mock login. Any non-empty username and password pair
// succeeds.
func (s *Session) LoginAsync(ctx context.Context, username, password string) *Task[core.User] {
	return Go(ctx, s.delay, func(ctx context.Context) (core.User, error) {
		return s.login(ctx, username, password)
	})
}

func (s *Session) Login(ctx context.Context, username, password string) (core.User, error) {
	return s.LoginAsync(ctx, username, password).Wait(ctx)
}

// SignUpAsync starts a mock signup.
func (s *Session) SignUpAsync(ctx context.Context, name, email, password string) *Task[core.User] {
	return Go(ctx, s.delay, func(ctx context.Context) (core.User, error) {
		return s.signUp(ctx, name, email, password)
	})
}

func (s *Session) SignUp(ctx context.Context, name, email, password string) (core.User, error) {
	return s.SignUpAsync(ctx, name, email, password).Wait(ctx)
}

func (s *Session) login(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return core.User{}, ErrInvalidCredentials
	}
	user := core.User{
		ID:    s.userID(),
		Name:  username,
		Email: strings.ToLower(username) + "@" + EmailDomain,
	}

	_, err := s.store.Update(ctx, func(st core.State) (core.State, error) {
		st.CurrentUser = &user
		if len(st.Businesses) == 0 {
			b := ledger.NewBusiness(s.newEnv(&user), user.Name+"'s Business")
			st.Businesses = append(st.Businesses, b)
			st.ActiveBusinessID = b.ID
		}
		return st, nil
	})
	if err != nil {
		return core.User{}, err
	}
	s.setView(Dashboard{})
	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *Session) signUp(ctx context.Context, name, email, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || password == "" || !strings.Contains(email, "@") {
		return core.User{}, ErrInvalidSignUp
	}
	user := core.User{ID: s.userID(), Name: name, Email: email}

	_, err := s.store.Update(ctx, func(st core.State) (core.State, error) {
		st.CurrentUser = &user
		b := ledger.NewBusiness(s.newEnv(&user), ledger.UniqueBusinessName(st.Businesses, name+"'s Business"))
		st.Businesses = append(st.Businesses, b)
		st.ActiveBusinessID = b.ID
		return st, nil
	})
	if err != nil {
		return core.User{}, err
	}
	s.setView(Dashboard{})
	s.logger.InfoContext(ctx, "User signed up", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *Session) userID() string {
	env := s.newEnv(nil)
	if env.NewID == nil {
		return ledger.NewID("user")
	}
	return env.NewID("user")
}

// Logout clears the user and the active business. Businesses stay.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.store.Update(ctx, func(st core.State) (core.State, error) {
		st.CurrentUser = nil
		st.ActiveBusinessID = ""
		return st, nil
	})
	if err != nil {
		return err
	}
	s.setView(Dashboard{})
	s.logger.InfoContext(ctx, "User logged out")
	return nil
}

// SelectBusiness makes id the active business and returns to the dashboard.
func (s *Session) SelectBusiness(ctx context.Context, id string) error {
	_, err := s.store.Update(ctx, func(st core.State) (core.State, error) {
		if st.CurrentUser == nil {
			return st, ErrUnauthenticated
		}
		if _, ok := st.Business(id); !ok {
			return st, fmt.Errorf("business %q: %w", id, core.ErrNotFound)
		}
		st.ActiveBusinessID = id
		return st, nil
	})
	if err != nil {
		return err
	}
	s.setView(Dashboard{})
	return nil
}

// SelectBook opens the transactions view of a book in the active business.
func (s *Session) SelectBook(bookID string) error {
	return s.SelectView(Transactions{BookID: bookID})
}

// SelectView switches the view. Book-scoped views must name a book of the
// active business.
func (s *Session) SelectView(v View) error {
	st := s.store.Snapshot()
	if st.CurrentUser == nil {
		return ErrUnauthenticated
	}
	if bookID := BookOf(v); bookID != "" {
		b, ok := st.ActiveBusiness()
		if !ok {
			return fmt.Errorf("no active business: %w", core.ErrNotFound)
		}
		if _, ok := b.FindBook(bookID); !ok {
			return fmt.Errorf("book %q: %w", bookID, core.ErrNotFound)
		}
	}
	s.setView(v)
	return nil
}

func (s *Session) setView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// reconcile keeps the selection valid after a change: while signed in with
// businesses and no valid active one, the first becomes active; a view on a
// book that no longer exists falls back to the dashboard.
func (s *Session) reconcile(ctx context.Context, st core.State) {
	if st.CurrentUser != nil {
		want := st.ActiveBusinessID
		if _, ok := st.Business(want); !ok {
			want = ""
			if len(st.Businesses) > 0 {
				want = st.Businesses[0].ID
			}
		}
		if want != st.ActiveBusinessID {
			_, err := s.store.Update(ctx, func(cur core.State) (core.State, error) {
				if _, ok := cur.Business(cur.ActiveBusinessID); ok {
					return cur, nil
				}
				cur.ActiveBusinessID = ""
				if len(cur.Businesses) > 0 {
					cur.ActiveBusinessID = cur.Businesses[0].ID
				}
				return cur, nil
			})
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to reconcile active business", "error", err)
			}
			// The nested update notifies again with the fixed selection.
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bookID := BookOf(s.view)
	if bookID == "" {
		return
	}
	b, ok := st.ActiveBusiness()
	if !ok {
		s.view = Dashboard{}
		return
	}
	if _, ok := b.FindBook(bookID); !ok {
		s.view = Dashboard{}
	}
}
