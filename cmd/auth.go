package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"soundlens/internal/server"
	"soundlens/internal/shared"
)

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// waits for the callback to complete the login.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	authURL, err := r.sessions.BeginLogin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin login: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(r.sessions)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now use: soundlens pick\n")

	return nil
}

// AuthStatus shows the current session state and token expiry.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	if !r.sessions.Authenticated(ctx) {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'soundlens auth login' to log in.\n")
		return nil
	}

	expiry := r.sessions.Expiry(ctx)
	r.writePlain("Authentication: ✓ Authenticated\n")
	if !expiry.IsZero() {
		r.writePlain("Token expires: %s (%s)\n",
			expiry.Local().Format(time.RFC1123),
			time.Until(expiry).Round(time.Second),
		)
	}
	return nil
}

// AuthLogout discards the stored session. Idempotent.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	if err := r.sessions.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}
