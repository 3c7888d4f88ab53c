// Package client is the Go counterpart of the browser front end: it talks
// to the user API with a cookie-backed session and surfaces the same three
// failure buckets the web forms distinguish (server said no, nothing
// answered, something unexpected).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoResponse marks the bucket where the request went out but nothing
// came back (server down, network timeout).
var ErrNoResponse = errors.New("no response from server")

// RejectionError is the bucket where the server answered with an error
// envelope; Code and Message come straight from it.
type RejectionError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected request (%d %s): %s", e.Status, e.Code, e.Message)
}

// User mirrors the wire shape of an account record.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Role     string  `json:"role"`
	Profile  Profile `json:"profile"`
}

type Profile struct {
	Bio                string   `json:"bio"`
	Skills             []string `json:"skills"`
	PhoneNumber        string   `json:"phoneNumber"`
	Resume             string   `json:"resume"`
	ResumeOriginalName string   `json:"resumeOriginalName"`
	Photo              string   `json:"photo"`
}

type envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	User    *User     `json:"user"`
	Error   *apiError `json:"error"`
}

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)

	if err != nil {
		return nil, err
	}

	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Register submits the sign-up form; resumePath is optional.
func (c *Client) Register(ctx context.Context, form RegisterForm, resumePath string) (*User, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"fullName": form.FullName,
		"email":    form.Email,
		"password": form.Password,
		"role":     form.Role,
	}

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if resumePath != "" {
		if err := attachFile(mw, "file", resumePath); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	env, err := c.do(ctx, http.MethodPost, "/api/v1/user/register", &buf, mw.FormDataContentType())

	if err != nil {
		return nil, "", err
	}

	return env.User, env.Message, nil
}

func (c *Client) Login(ctx context.Context, form LoginForm) (*User, string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    form.Email,
		"password": form.Password,
		"role":     form.Role,
	})

	if err != nil {
		return nil, "", err
	}

	env, err := c.do(ctx, http.MethodPost, "/api/v1/user/login", bytes.NewReader(body), "application/json")

	if err != nil {
		return nil, "", err
	}

	return env.User, env.Message, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/v1/user/logout", nil, "")
	return err
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/v1/user/profile", nil, "")

	if err != nil {
		return nil, err
	}

	return env.User, nil
}

// UpdateProfile sends only the fields present in the map; resumePath is
// optional.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]string, resumePath string) (*User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	if resumePath != "" {
		if err := attachFile(mw, "file", resumePath); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	env, err := c.do(ctx, http.MethodPut, "/api/v1/user/profile", &buf, mw.FormDataContentType())

	if err != nil {
		return nil, err
	}

	return env.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)

	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)

	if err != nil {
		var uErr *url.Error

		if errors.As(err, &uErr) {
			return nil, fmt.Errorf("%w: %v", ErrNoResponse, uErr.Err)
		}

		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope

	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		rej := &RejectionError{Status: resp.StatusCode}

		if env.Error != nil {
			rej.Code = env.Error.Code
			rej.Message = env.Error.Message
			rej.Details = env.Error.Details
		}

		return nil, rej
	}

	return &env, nil
}

func attachFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)

	if err != nil {
		return err
	}
	defer f.Close()

	fw, err := mw.CreateFormFile(field, filepath.Base(path))

	if err != nil {
		return err
	}

	_, err = io.Copy(fw, f)
	return err
}
