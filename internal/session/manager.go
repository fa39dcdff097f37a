// Package session owns the console's authentication state: the current
// user, the token pair, and the timer that ends the session when the access
// token expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go-pos-console/internal/auth"
	"go-pos-console/internal/models"
	"go-pos-console/internal/storage"
)

var (
	ErrTokenExpired   = errors.New("received an already expired access token")
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrRefreshExpired = errors.New("refresh token has expired")
)

// AuthAPI is the part of the backend the session depends on.
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	Profile(ctx context.Context) (*models.Profile, error)
}

// Manager is the single source of truth for who is signed in.
// Construct one per process and pass it to whatever needs it.
type Manager struct {
	api    AuthAPI
	store  storage.Store
	clock  Clock
	expiry *expiryTask

	// lifecycle serialises acquire, logout and expiry so storage and state
	// always change together.
	lifecycle sync.Mutex

	mu    sync.RWMutex
	state State

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

type Option func(*Manager)

func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// NewManager starts in the loading state; call Restore to finish startup.
func NewManager(api AuthAPI, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		clock: realClock{},
		state: State{IsLoading: true},
		subs:  make(map[int]func(State)),
	}
	for _, o := range opts {
		o(m)
	}
	m.expiry = newExpiryTask(m.clock)
	return m
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// AccessToken is used as the backend client's bearer source.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AccessToken
}

// Subscribe registers fn to receive every state change. The returned func
// removes the subscription.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify() {
	s := m.Snapshot()
	m.subMu.Lock()
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// --- OPERATIONS ---

// Login authenticates against the backend. On any failure the session is
// reset to signed-out and the error is returned for display.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	tokens, err := m.api.Login(ctx, req)
	if err != nil {
		m.Logout(ctx)
		return nil, err
	}
	user, err := m.acquire(ctx, tokens, nil)
	if err != nil {
		m.Logout(ctx)
		return nil, err
	}
	log.Printf("🔓 %s signed in (%s)", user.Username, user.Role)
	return user, nil
}

// Register creates an account. The token carries no name or email, so
// those are taken from the submitted form. It does not chain into Login.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	tokens, err := m.api.Register(ctx, req)
	if err != nil {
		m.Logout(ctx)
		return nil, err
	}
	form := &models.User{Name: req.Name, Email: req.Email, Phone: req.Phone}
	user, err := m.acquire(ctx, tokens, form)
	if err != nil {
		m.Logout(ctx)
		return nil, err
	}
	log.Printf("🆕 %s registered", user.Username)
	return user, nil
}

// Logout never fails. Storage errors are logged.
func (m *Manager) Logout(ctx context.Context) {
	m.lifecycle.Lock()
	m.clearLocked(ctx)
	m.lifecycle.Unlock()
	m.notify()
}

// clearLocked requires m.lifecycle.
func (m *Manager) clearLocked(ctx context.Context) {
	m.expiry.Cancel()
	if err := m.store.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyLegacyUser); err != nil {
		log.Printf("session: clear storage: %v", err)
	}

	m.mu.Lock()
	wasAuthed := m.state.IsAuthenticated
	m.state = State{}
	m.mu.Unlock()

	if wasAuthed {
		log.Println("🔒 Session closed")
	}
}

// RefreshAuth exchanges the refresh token for a new pair. It fails closed:
// every error logs the session out before being returned.
func (m *Manager) RefreshAuth(ctx context.Context) error {
	m.mu.RLock()
	refresh := m.state.RefreshToken
	var known *models.User
	if m.state.User != nil {
		u := *m.state.User
		known = &u
	}
	m.mu.RUnlock()

	if refresh == "" {
		stored, err := m.store.Get(ctx, storage.KeyRefreshToken)
		if err != nil {
			log.Printf("session: read refresh token: %v", err)
		}
		refresh = stored
	}
	if refresh == "" {
		m.Logout(ctx)
		return ErrNoRefreshToken
	}
	if auth.IsTokenExpired(refresh, m.clock.Now()) {
		m.Logout(ctx)
		return ErrRefreshExpired
	}

	tokens, err := m.api.Refresh(ctx, refresh)
	if err != nil {
		m.Logout(ctx)
		return fmt.Errorf("refresh session: %w", err)
	}
	if _, err := m.acquire(ctx, tokens, known); err != nil {
		m.Logout(ctx)
		return err
	}
	return nil
}

// RefreshProfile is a best-effort background sync of profile fields.
// Errors are logged and never end the session.
func (m *Manager) RefreshProfile(ctx context.Context) {
	if m.AccessToken() == "" {
		return
	}
	p, err := m.api.Profile(ctx)
	if err != nil {
		log.Printf("session: profile sync failed: %v", err)
		return
	}

	m.mu.Lock()
	if m.state.User == nil {
		// signed out while the request was in flight
		m.mu.Unlock()
		return
	}
	u := *m.state.User
	mergeProfile(&u, p)
	m.state.User = &u
	m.mu.Unlock()

	m.notify()
}

// Restore rebuilds the session from durable storage at startup. A decoded
// user is never written back; a legacy stored user is purged.
func (m *Manager) Restore(ctx context.Context) {
	if err := m.store.Delete(ctx, storage.KeyLegacyUser); err != nil {
		log.Printf("session: purge legacy user: %v", err)
	}

	access, err := m.store.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		log.Printf("session: read access token: %v", err)
	}
	refresh, err := m.store.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		log.Printf("session: read refresh token: %v", err)
	}

	if access == "" {
		m.finishLoading()
		return
	}

	claims, err := auth.Decode(access)
	if err != nil || claims.Expired(m.clock.Now()) {
		if err := m.store.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken); err != nil {
			log.Printf("session: clear stale tokens: %v", err)
		}
		log.Println("session: stored token is invalid or expired")
		m.finishLoading()
		return
	}

	user := claims.User()
	m.lifecycle.Lock()
	m.mu.Lock()
	m.state = State{
		User:            user,
		AccessToken:     access,
		RefreshToken:    refresh,
		IsAuthenticated: true,
	}
	m.mu.Unlock()
	m.scheduleExpiryLocked(ctx, access)
	m.lifecycle.Unlock()

	log.Printf("♻️  Session restored for %s", user.Username)
	m.notify()
}

// TimerPending reports whether an expiry callback is scheduled.
func (m *Manager) TimerPending() bool {
	return m.expiry.Pending()
}

// --- INTERNALS ---

// acquire validates a fresh token pair, derives the user, persists only the
// token strings and arms the expiry timer. base supplies profile fields the
// token does not carry.
func (m *Manager) acquire(ctx context.Context, tokens *models.AuthTokens, base *models.User) (*models.User, error) {
	if tokens == nil || tokens.AccessToken == "" {
		return nil, auth.ErrMalformedToken
	}
	claims, err := auth.Decode(tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if claims.Expired(m.clock.Now()) {
		return nil, ErrTokenExpired
	}

	user := claims.User()
	if base != nil {
		mergeUser(user, base)
	}

	m.lifecycle.Lock()
	// The previous token's timer must not fire between the writes below.
	m.expiry.Cancel()
	if err := m.store.Set(ctx, storage.KeyAccessToken, tokens.AccessToken); err != nil {
		m.lifecycle.Unlock()
		return nil, fmt.Errorf("persist access token: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyRefreshToken, tokens.RefreshToken); err != nil {
		m.lifecycle.Unlock()
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	if err := m.store.Delete(ctx, storage.KeyLegacyUser); err != nil {
		log.Printf("session: purge legacy user: %v", err)
	}

	m.mu.Lock()
	m.state = State{
		User:            user,
		AccessToken:     tokens.AccessToken,
		RefreshToken:    tokens.RefreshToken,
		IsAuthenticated: true,
	}
	m.mu.Unlock()
	m.scheduleExpiryLocked(ctx, tokens.AccessToken)
	m.lifecycle.Unlock()

	m.notify()

	out := *user
	return &out, nil
}

// scheduleExpiryLocked requires m.lifecycle. A token already past its
// expiry ends the session on the spot.
func (m *Manager) scheduleExpiryLocked(ctx context.Context, access string) {
	remaining := auth.TimeUntilExpiry(access, m.clock.Now())
	if remaining <= 0 {
		log.Println("⏰ Access token expired, signing out")
		m.clearLocked(ctx)
		return
	}
	m.expiry.Schedule(remaining, func() { m.expire(access) })
}

// expire ends the session that access belongs to. A timer that fires after
// a newer token was acquired finds a different token and does nothing.
func (m *Manager) expire(access string) {
	m.lifecycle.Lock()
	if m.AccessToken() != access {
		m.lifecycle.Unlock()
		return
	}
	log.Println("⏰ Access token expired, signing out")
	m.clearLocked(context.Background())
	m.lifecycle.Unlock()
	m.notify()
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()
	m.notify()
}

// mergeUser copies profile fields from prev that the token does not supply.
func mergeUser(dst, prev *models.User) {
	if dst.Name == "" {
		dst.Name = prev.Name
	}
	if dst.Email == "" {
		dst.Email = prev.Email
	}
	if dst.Phone == "" {
		dst.Phone = prev.Phone
	}
	if dst.Avatar == "" {
		dst.Avatar = prev.Avatar
	}
	if dst.Status == "" {
		dst.Status = prev.Status
	}
	if dst.Gender == "" {
		dst.Gender = prev.Gender
	}
	if dst.Birthday == "" {
		dst.Birthday = prev.Birthday
	}
}

func mergeProfile(u *models.User, p *models.Profile) {
	if p.ID != 0 {
		u.ID = p.ID
	}
	if p.Username != "" {
		u.Username = p.Username
	}
	u.Name = p.Name
	u.Email = p.Email
	u.Phone = p.Phone
	u.Avatar = p.Avatar
	u.Gender = p.Gender
	u.Birthday = p.Birthday
	if p.Status != "" {
		u.Status = p.Status
	}
}
