package client

import (
	"context"
	"sync"
)

// Session is the piece of state the web form keeps in component state: the
// signed-in user and a loading flag for the submit button.
type Session struct {
	mu      sync.Mutex
	loading bool
	user    *User
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) setUser(u *User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// begin flips the loading flag and hands back the deferred clear: the flag
// drops on every exit path, success or failure.
func (s *Session) begin() func() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}
}

// Controller drives the forms end to end: local validation first, then the
// network call, with the session state updated around it.
type Controller struct {
	api     *Client
	session Session

	// Navigate, when set, receives the route to show after a successful
	// submit ("/" after login, "/login" after registration).
	Navigate func(route string)
}

func NewController(api *Client) *Controller {
	return &Controller{api: api}
}

func (c *Controller) navigate(route string) {
	if c.Navigate != nil {
		c.Navigate(route)
	}
}

func (c *Controller) Session() *Session {
	return &c.session
}

func (c *Controller) SubmitLogin(ctx context.Context, form LoginForm) (*User, error) {
	if issues := form.Validate(); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	done := c.session.begin()
	defer done()

	u, _, err := c.api.Login(ctx, form)

	if err != nil {
		return nil, err
	}

	c.session.setUser(u)
	c.navigate("/")
	return u, nil
}

func (c *Controller) SubmitRegister(ctx context.Context, form RegisterForm, resumePath string) (*User, error) {
	if issues := form.Validate(); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	done := c.session.begin()
	defer done()

	u, _, err := c.api.Register(ctx, form, resumePath)

	if err != nil {
		return nil, err
	}

	// registration does not sign the user in; the login form is next
	c.navigate("/login")
	return u, nil
}

func (c *Controller) SignOut(ctx context.Context) error {
	done := c.session.begin()
	defer done()

	if err := c.api.Logout(ctx); err != nil {
		return err
	}

	c.session.setUser(nil)
	return nil
}
