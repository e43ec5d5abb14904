package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/heyraji/heyraji/internal/auth"
	heyerrors "github.com/heyraji/heyraji/internal/errors"
	"github.com/heyraji/heyraji/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to HeyRaji",
	Long: `Sign in with an emailed one-time code and manage the stored session.

The session is kept in the OS keyring by default; set session.backend to
file to keep it in <home>/session.json instead.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an emailed one-time code",
	Long: `Send a one-time code to your email address and exchange it for a session.

Without --code, a code is emailed and you are prompted for it. With both
--email and --code the code from an earlier email is verified directly.

Examples:
  heyraji auth login
  heyraji auth login --email you@example.com
  heyraji auth login --email you@example.com --code 123456`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authCallbackCmd = &cobra.Command{
	Use:   "callback <redirect-url>",
	Short: "Complete a sign-in from the URL the browser was redirected to",
	Long: `Complete a sign-in from a redirect URL pasted from the browser.

A ?code= parameter is exchanged for a session; otherwise an
#access_token=...&refresh_token=... fragment is adopted; otherwise the
stored session is used. The attempt fails after --timeout.

Examples:
  heyraji auth callback 'https://app.heyraji.com/auth/callback?code=...'`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthCallback,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the session tokens",
	Args:  cobra.NoArgs,
	RunE:  runAuthRefresh,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the hosted sign-in page in your browser",
	Long: `Open the HeyRaji sign-in page (auth.site_url) in your browser, or with
--provider, the auth backend's sign-in page for that identity provider.
Finish with 'heyraji auth callback <redirect-url>'.`,
	Args: cobra.NoArgs,
	RunE: runAuthOpen,
}

func init() {
	authLoginCmd.Flags().String("email", "", "email address to sign in with")
	authLoginCmd.Flags().String("code", "", "6-digit code from the sign-in email")

	authCallbackCmd.Flags().Duration("timeout", 0, "give up after this long (default auth.callback_timeout, 30s)")

	authOpenCmd.Flags().String("provider", "", "identity provider to sign in with (e.g. google)")
	authOpenCmd.Flags().Bool("no-browser", false, "print the URL instead of opening it")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authCallbackCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authOpenCmd)

	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	code, _ := cmd.Flags().GetString("code")
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)

	client, err := rt.authClient(cmd.Context())
	if err != nil {
		return err
	}

	interactive := tui.ShouldPrompt()
	if email == "" {
		if !interactive {
			return auth.NewError(auth.ErrInvalidEmail, "required flag --email not set (no terminal to prompt on)", nil)
		}
		if email, err = tui.PromptForEmail(""); err != nil {
			return err
		}
		email = strings.TrimSpace(email)
	}

	out := cmd.OutOrStdout()
	if code == "" {
		if err := client.SendOTP(cmd.Context(), email); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Code sent to %s\n", email)

		if !interactive {
			fmt.Fprintf(out, "\nFinish with: heyraji auth login --email %s --code <code>\n", email)
			return nil
		}
		if code, err = tui.PromptForCode(email); err != nil {
			return err
		}
		code = strings.TrimSpace(code)
	}

	session, err := client.VerifyOTP(cmd.Context(), email, code)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Signed in as %s\n", session.Email)
	return nil
}

func runAuthCallback(cmd *cobra.Command, args []string) error {
	hash, query, err := auth.ParseRedirectURL(args[0])
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		if timeout, err = rt.config.callbackTimeout(); err != nil {
			return err
		}
	}

	client, err := rt.authClient(cmd.Context())
	if err != nil {
		return err
	}

	var update auth.CallbackUpdate
	spinner := tui.ShouldPrompt() && rt.cmdCtx.Format == "text"
	if spinner {
		update, err = tui.RunCallbackView(cmd.Context(), client, hash, query, timeout,
			tui.StylesFor(rt.cmdCtx.NoColor), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	} else {
		update = auth.RunCallback(cmd.Context(), client, hash, query, timeout, func(u auth.CallbackUpdate) {
			rt.logger.Debug("callback state", "state", string(u.State))
		})
	}
	rt.metrics.RecordCallback(string(update.State), update.Elapsed)

	if update.Err != nil {
		return update.Err
	}
	if !spinner {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", update.Session.Email)
	}
	return nil
}

// sessionStatus is the printable view of a session. Tokens are never shown.
type sessionStatus struct {
	SignedIn  bool      `json:"signed_in" yaml:"signed_in"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	UserID    string    `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Provider  string    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Method    string    `json:"method,omitempty" yaml:"method,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired   bool      `json:"expired" yaml:"expired"`
}

func (s sessionStatus) String() string {
	if !s.SignedIn {
		return "Not signed in.\nUse 'heyraji auth login' to sign in."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Signed in as %s\n", s.Email)
	fmt.Fprintf(&b, "User ID:  %s\n", s.UserID)
	fmt.Fprintf(&b, "Method:   %s\n", s.Method)
	switch {
	case s.ExpiresAt.IsZero():
		b.WriteString("Expires:  unknown")
	case s.Expired:
		b.WriteString("Expires:  expired (run 'heyraji auth refresh')")
	default:
		fmt.Fprintf(&b, "Expires:  %s", s.ExpiresAt.Local().Format(time.RFC1123))
	}
	return b.String()
}

func newSessionStatus(s *auth.Session) sessionStatus {
	if s == nil {
		return sessionStatus{}
	}
	return sessionStatus{
		SignedIn:  true,
		Email:     s.Email,
		UserID:    s.UserID,
		Provider:  s.Provider,
		Method:    s.Method,
		ExpiresAt: s.ExpiresAt,
		Expired:   s.IsExpired(),
	}
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	store := rt.sessionStore()
	session, err := store.Load(cmd.Context())
	if err != nil {
		return auth.WrapError(auth.ErrSessionStoreFailed, "failed to load session", err, nil)
	}

	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	return formatter.Format(newSessionStatus(session))
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	client, err := rt.authClient(cmd.Context())
	if err != nil {
		return err
	}

	session, err := client.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if d := session.ExpiresIn(); d > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Session refreshed, expires in %s\n", d.Round(time.Second))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Session refreshed")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	client, err := rt.authClient(cmd.Context())
	if err != nil {
		return err
	}

	if err := client.SignOut(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
	return nil
}

func runAuthOpen(cmd *cobra.Command, args []string) error {
	provider, _ := cmd.Flags().GetString("provider")
	noBrowser, _ := cmd.Flags().GetBool("no-browser")

	var target string
	if provider != "" {
		client, err := rt.platformClient(cmd.Context())
		if err != nil {
			return err
		}
		if target, err = client.AuthorizeURL(cmd.Context(), provider); err != nil {
			return err
		}
	} else {
		target = rt.config.Auth.SiteURL
		if target == "" {
			return heyerrors.New(heyerrors.ErrCodeConfigInvalid, "auth.site_url is not configured").
				WithSuggestion("Run 'heyraji config set auth.site_url https://app.heyraji.com/login'").
				WithSuggestion("Or sign in with an identity provider: heyraji auth open --provider google")
		}
	}

	out := cmd.OutOrStdout()
	if noBrowser {
		fmt.Fprintln(out, target)
		return nil
	}

	browser.Stdout = cmd.ErrOrStderr()
	fmt.Fprintf(out, "Opening %s\n", target)
	if err := browser.OpenURL(target); err != nil {
		fmt.Fprintf(out, "Could not open a browser; visit the URL above. (%v)\n", err)
	}
	fmt.Fprintln(out, "After signing in, run: heyraji auth callback '<redirect-url>'")
	return nil
}
