package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

const loginTimeout = 5 * time.Minute

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Teamleader login",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Teamleader in the browser",
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached Teamleader token",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	auth, err := newAuth(cfg, logger)
	if err != nil {
		return err
	}

	redirect, err := url.Parse(cfg.Teamleader.RedirectURL)
	if err != nil {
		return fmt.Errorf("parsing redirect url: %w", err)
	}
	state, err := randomState()
	if err != nil {
		return err
	}

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	finish := func(res result) {
		select {
		case done <- res:
		default:
		}
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	r := chi.NewRouter()
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			finish(result{err: errors.New("oauth state mismatch")})
		case q.Get("error") != "":
			http.Error(w, "login failed", http.StatusBadRequest)
			finish(result{err: fmt.Errorf("teamleader login failed: %s", q.Get("error"))})
		default:
			fmt.Fprintln(w, "Login successful, you can close this window.")
			finish(result{code: q.Get("code")})
		}
	})

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("listening for callback on %s: %w", redirect.Host, err)
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Close()

	fmt.Println(titleStyle.Render("Teamleader login"))
	fmt.Println("Open this URL in your browser:")
	fmt.Println()
	fmt.Println("  " + auth.AuthCodeURL(state))
	fmt.Println()
	fmt.Println(dimStyle.Render("Waiting for the callback on " + cfg.Teamleader.RedirectURL + " ..."))

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for login: %w", ctx.Err())
	}
	if res.err != nil {
		return res.err
	}

	token, err := auth.Exchange(ctx, res.code)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Logged in.") + dimStyle.Render(" Token valid until "+token.Expiry.Local().Format("2006-01-02 15:04")))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	auth, err := newAuth(cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	token, err := auth.Status()
	if err != nil {
		return err
	}
	if token == nil {
		fmt.Println(warningStyle.Render("Not logged in.") + " Run 'teamtime auth login'.")
		return nil
	}

	fmt.Println(successStyle.Render("Logged in."))
	if !token.Expiry.IsZero() {
		fmt.Printf("Access token expires %s\n", token.Expiry.Local().Format("2006-01-02 15:04"))
	}
	if token.RefreshToken != "" {
		fmt.Println(dimStyle.Render("A refresh token is cached; expired access tokens are renewed automatically."))
	}
	return nil
}
