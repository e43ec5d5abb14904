package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/heyraji/heyraji/internal/health"
	"github.com/heyraji/heyraji/internal/settings"
	"github.com/heyraji/heyraji/internal/tui"
)

const doctorCheckTimeout = 5 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostics on configuration, storage, session and auth backend",
	Long: `Run diagnostics to check that HeyRaji is properly configured.

Checks include:
  • Configuration (auth backend URL and anon key)
  • Settings storage (file or postgres) is readable
  • Session backend (keyring or file) is readable
  • Auth backend is reachable and accepts the anon key

Examples:
  heyraji doctor
  heyraji doctor --format json
`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// DoctorReport represents the complete health check report
type DoctorReport struct {
	Config    *DoctorCheck `json:"config" yaml:"config"`
	Storage   *DoctorCheck `json:"storage" yaml:"storage"`
	Session   *DoctorCheck `json:"session" yaml:"session"`
	Backend   *DoctorCheck `json:"backend" yaml:"backend"`
	Issues    []string     `json:"issues" yaml:"issues"`
	Warnings  []string     `json:"warnings" yaml:"warnings"`
	NextSteps []string     `json:"next_steps" yaml:"next_steps"`
	Healthy   bool         `json:"healthy" yaml:"healthy"`
}

// DoctorCheck represents a single health check result
type DoctorCheck struct {
	Name    string                 `json:"name" yaml:"name"`
	Status  string                 `json:"status" yaml:"status"` // "ok", "warning", "error", "skipped"
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

func (r *DoctorReport) issue(msg, next string) {
	r.Issues = append(r.Issues, msg)
	if next != "" {
		r.NextSteps = append(r.NextSteps, next)
	}
}

func (r *DoctorReport) warn(msg, next string) {
	r.Warnings = append(r.Warnings, msg)
	if next != "" {
		r.NextSteps = append(r.NextSteps, next)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	report := &DoctorReport{
		Issues:    []string{},
		Warnings:  []string{},
		NextSteps: []string{},
	}

	checkConfig(report)
	runHealthChecks(ctx, report)

	report.Healthy = len(report.Issues) == 0

	if rt.cmdCtx.Format != "text" {
		formatter, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		if err := formatter.Format(report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report, tui.StylesFor(rt.cmdCtx.NoColor))
	}

	if !report.Healthy {
		return fmt.Errorf("doctor found %d issue(s)", len(report.Issues))
	}
	return nil
}

func checkConfig(report *DoctorReport) {
	cfg := rt.config
	check := &DoctorCheck{
		Name:    "Configuration",
		Status:  "ok",
		Message: fmt.Sprintf("auth backend %s", cfg.Auth.URL),
		Details: map[string]interface{}{
			"storage_driver":  cfg.Storage.Driver,
			"session_backend": cfg.Session.Backend,
		},
	}
	report.Config = check

	if cfg.Auth.URL == "" {
		check.Status = "error"
		check.Message = "auth.url is not set"
		report.issue("Auth backend URL is not configured",
			fmt.Sprintf("Set %s or run 'heyraji config set auth.url <url>'", EnvAuthURL))
		return
	}
	if cfg.Auth.AnonKey == "" {
		check.Status = "warning"
		check.Message += " (no anon key)"
		report.warn("No anon key configured; most backends reject requests without one",
			fmt.Sprintf("Set %s or run 'heyraji config set auth.anon_key <key>'", EnvAuthAnonKey))
	}
	if _, err := cfg.callbackTimeout(); err != nil {
		check.Status = "error"
		check.Message = err.Error()
		report.issue("auth.callback_timeout is not a valid duration", "Run 'heyraji config set auth.callback_timeout 30s'")
	}
}

// runHealthChecks fills the storage, session and backend sections. Checks
// whose dependency cannot be constructed are reported without running.
func runHealthChecks(ctx context.Context, report *DoctorReport) {
	manager := health.NewManager().WithTimeout(doctorCheckTimeout)
	summaries := map[string]string{
		"storage": "Stored settings cannot be read",
		"session": "Session backend cannot be read",
		"backend": "Auth backend is unreachable or rejected the anon key",
	}

	report.Storage = &DoctorCheck{Name: "Settings storage"}
	if location, err := rt.storageLocation(ctx); err != nil {
		report.Storage.Status = "error"
		report.Storage.Message = err.Error()
		report.issue("Settings storage cannot be opened", "Check storage.driver and storage.dsn with 'heyraji config view'")
	} else {
		store, _ := rt.storage(ctx)
		report.Storage.Details = map[string]interface{}{"location": location}
		manager.AddChecker(health.NewStorageChecker(store, settings.StorageKey))
	}

	report.Session = &DoctorCheck{
		Name:    "Session",
		Details: map[string]interface{}{"backend": rt.config.Session.Backend},
	}
	manager.AddChecker(health.NewSessionChecker(rt.sessionStore()))

	report.Backend = &DoctorCheck{Name: "Auth backend", Status: "skipped", Message: "auth.url is not set"}
	if rt.config.Auth.URL != "" {
		client, err := rt.platformClient(ctx)
		if err != nil {
			report.Backend.Status = "error"
			report.Backend.Message = err.Error()
			report.issue("Auth backend client cannot be created", "")
		} else {
			manager.AddChecker(health.NewBackendChecker(client))
		}
	}

	checks := map[string]*DoctorCheck{
		"storage": report.Storage,
		"session": report.Session,
		"backend": report.Backend,
	}
	for _, result := range manager.Check(ctx) {
		check := checks[result.Name]
		check.Message = result.Message
		for k, v := range result.Details {
			if check.Details == nil {
				check.Details = map[string]interface{}{}
			}
			check.Details[k] = v
		}

		switch result.Status {
		case health.StatusHealthy:
			check.Status = "ok"
		case health.StatusDegraded:
			check.Status = "warning"
			report.warn(degradedSummary(result), result.Remedy)
		default:
			check.Status = "error"
			report.issue(summaries[result.Name], result.Remedy)
		}
	}
}

func degradedSummary(result *health.Result) string {
	switch result.Name {
	case "session":
		if result.Message == "not signed in" {
			return "Not signed in"
		}
		return "Session access token has expired"
	default:
		return "Stored settings cannot be read"
	}
}

func printReport(w io.Writer, report *DoctorReport, styles tui.Styles) {
	fmt.Fprintln(w, styles.Title.Render("HeyRaji doctor"))

	for _, check := range []*DoctorCheck{report.Config, report.Storage, report.Session, report.Backend} {
		printCheck(w, check, styles)
	}
	fmt.Fprintln(w)

	printList(w, "Issues:", report.Issues, styles.Error)
	printList(w, "Warnings:", report.Warnings, styles.Status)
	printList(w, "Next steps:", report.NextSteps, styles.Muted)

	if report.Healthy {
		fmt.Fprintln(w, styles.Success.Render("✓ HeyRaji is ready to use"))
		return
	}
	fmt.Fprintln(w, styles.Error.Render("✗ HeyRaji has issues that need attention"))
}

func printList(w io.Writer, title string, items []string, style interface{ Render(...string) string }) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, style.Render(title))
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
	fmt.Fprintln(w)
}

func printCheck(w io.Writer, check *DoctorCheck, styles tui.Styles) {
	icon := " "
	switch check.Status {
	case "ok":
		icon = styles.Success.Render("✓")
	case "warning":
		icon = styles.Status.Render("⚠")
	case "error":
		icon = styles.Error.Render("✗")
	case "skipped":
		icon = styles.Muted.Render("○")
	}

	fmt.Fprintf(w, "  %s %s: %s\n", icon, check.Name, check.Message)
}
