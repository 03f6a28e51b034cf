package auth_test

import (
	"context"
	"sync"

	"clapper/internal/auth"
)

type stubGateway struct {
	mu        sync.Mutex
	user      *auth.User
	signInErr error
	current   *auth.User
	subs      map[int]func(*auth.User)
	next      int

	signOuts      int
	verifications int
	displayName   string
}

func newStubGateway(user *auth.User) *stubGateway {
	return &stubGateway{user: user, subs: make(map[int]func(*auth.User))}
}

func (g *stubGateway) SignUp(_ context.Context, email, _ string) (*auth.User, error) {
	u := &auth.User{UID: "new-uid", Email: email, Provider: auth.ProviderPassword}
	g.set(u)
	return u, nil
}

func (g *stubGateway) SignIn(context.Context, string, string) (*auth.User, error) {
	if g.signInErr != nil {
		return nil, g.signInErr
	}
	g.set(g.user)
	return g.user, nil
}

func (g *stubGateway) SignInWithGoogle(context.Context, string) (*auth.User, error) {
	g.set(g.user)
	return g.user, nil
}

func (g *stubGateway) UpdateProfile(_ context.Context, u *auth.User, name string) error {
	g.mu.Lock()
	g.displayName = name
	g.mu.Unlock()
	u.DisplayName = name
	return nil
}

func (g *stubGateway) SendVerificationEmail(context.Context, *auth.User) error {
	g.mu.Lock()
	g.verifications++
	g.mu.Unlock()
	return nil
}

func (g *stubGateway) SignOut(context.Context) error {
	g.mu.Lock()
	g.signOuts++
	g.mu.Unlock()
	g.set(nil)
	return nil
}

func (g *stubGateway) CurrentUser() *auth.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

func (g *stubGateway) Subscribe(fn func(*auth.User)) func() {
	g.mu.Lock()
	id := g.next
	g.next++
	g.subs[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *stubGateway) subscribers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

func (g *stubGateway) set(u *auth.User) {
	g.mu.Lock()
	g.current = u
	fns := make([]func(*auth.User), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}
