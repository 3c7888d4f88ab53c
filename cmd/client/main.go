package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/jobhubhq/jobhub/internal/client"
)

// Interactive console for the user API. The session cookie lives in the
// process, so log in and poke around within one run.
func main() {
	base := flag.String("base", "http://localhost:8080", "API base URL")
	flag.Parse()

	api, err := client.New(*base)

	if err != nil {
		fmt.Fprintln(os.Stderr, "client init:", err)
		os.Exit(1)
	}

	ctrl := client.NewController(api)
	in := bufio.NewScanner(os.Stdin)

	fmt.Println("commands: register | login | profile | update | logout | quit")

	for {
		fmt.Print("> ")

		if !in.Scan() {
			return
		}

		cmd := strings.TrimSpace(in.Text())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)

		switch cmd {
		case "register":
			doRegister(ctx, ctrl, in)
		case "login":
			doLogin(ctx, ctrl, in)
		case "profile":
			doProfile(ctx, api)
		case "update":
			doUpdate(ctx, api, in)
		case "logout":
			if err := ctrl.SignOut(ctx); err != nil {
				report(err)
			} else {
				fmt.Println("logged out")
			}
		case "quit", "exit":
			cancel()
			return
		case "":
		default:
			fmt.Println("unknown command:", cmd)
		}

		cancel()
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label + ": ")

	if !in.Scan() {
		return ""
	}

	return strings.TrimSpace(in.Text())
}

func promptPassword(label string) string {
	fmt.Print(label + ": ")

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()

	if err != nil {
		return ""
	}

	return string(pw)
}

func doRegister(ctx context.Context, ctrl *client.Controller, in *bufio.Scanner) {
	form := client.RegisterForm{
		FullName: prompt(in, "full name"),
		Email:    prompt(in, "email"),
		Role:     prompt(in, "role (student|recruiter)"),
		Password: promptPassword("password"),
	}
	resume := prompt(in, "resume path (optional)")

	u, err := ctrl.SubmitRegister(ctx, form, resume)

	if err != nil {
		report(err)
		return
	}

	fmt.Printf("account created: %s <%s> (%s)\n", u.FullName, u.Email, u.Role)
}

func doLogin(ctx context.Context, ctrl *client.Controller, in *bufio.Scanner) {
	form := client.LoginForm{
		Email:    prompt(in, "email"),
		Role:     prompt(in, "role (student|recruiter|admin)"),
		Password: promptPassword("password"),
	}

	u, err := ctrl.SubmitLogin(ctx, form)

	if err != nil {
		report(err)
		return
	}

	fmt.Printf("signed in as %s (%s)\n", u.FullName, u.Role)
}

func doProfile(ctx context.Context, api *client.Client) {
	u, err := api.Profile(ctx)

	if err != nil {
		report(err)
		return
	}

	fmt.Printf("%s <%s> role=%s\n", u.FullName, u.Email, u.Role)

	if u.Profile.Bio != "" {
		fmt.Println("bio:", u.Profile.Bio)
	}
	if len(u.Profile.Skills) > 0 {
		fmt.Println("skills:", strings.Join(u.Profile.Skills, ", "))
	}
	if u.Profile.Resume != "" {
		fmt.Printf("resume: %s (%s)\n", u.Profile.Resume, u.Profile.ResumeOriginalName)
	}
}

func doUpdate(ctx context.Context, api *client.Client, in *bufio.Scanner) {
	fields := map[string]string{}

	for _, key := range []string{"fullName", "bio", "phoneNumber", "skills"} {
		if v := prompt(in, key+" (blank to skip)"); v != "" {
			fields[key] = v
		}
	}

	resume := prompt(in, "resume path (optional)")

	u, err := api.UpdateProfile(ctx, fields, resume)

	if err != nil {
		report(err)
		return
	}

	fmt.Println("profile updated for", u.FullName)
}

func report(err error) {
	var vErr *client.ValidationError
	var rej *client.RejectionError

	switch {
	case errors.As(err, &vErr):
		for _, iss := range vErr.Issues {
			fmt.Printf("  %s %s\n", iss.Field, iss.Message)
		}

	case errors.As(err, &rej):
		fmt.Printf("server said no: %s (%s)\n", rej.Message, rej.Code)

	case errors.Is(err, client.ErrNoResponse):
		fmt.Println("server is not responding, try again later")

	default:
		fmt.Println("unexpected error:", err)
	}
}
