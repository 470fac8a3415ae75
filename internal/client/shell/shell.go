// Package shell implements the interactive client: a line-oriented REPL that
// drives the local engine without a server.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/atinyakov/Vocap/internal/service"
)

// Dictation feeds text into the running capture.
type Dictation interface {
	Dictate(text string)
}

// Shell wires the engine services to a text terminal.
type Shell struct {
	Flow         *service.RecordingFlow
	Dictation    Dictation
	Admission    *service.AdmissionController
	Usage        *service.UsageCounter
	Entitlements *service.EntitlementStore
	Subscription *service.SubscriptionService
	Memos        *service.MemoService
	Preferences  *service.Preferences
	Wiper        *service.DataWiper
}

const help = `Available commands:
  record <text>        record a memo by dictation
  memos [query]        list memos, optionally filtered
  show <id>            print a memo
  title <id> <title>   rename a memo
  delete <id>          delete a memo and its capture
  export <id>          print a memo as shareable text (premium)
  usage                show this month's usage
  plans                list subscription plans
  upgrade <plan>       buy monthly or annual
  restore              restore purchases
  downgrade            switch back to the free tier
  theme <mode>         system, light or dark
  wipe                 delete all local data
  exit`

// Run reads commands from in until EOF or "exit".
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "vocap> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		cmd, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		rest = strings.TrimSpace(rest)
		if cmd == "" {
			continue
		}
		if cmd == "exit" {
			fmt.Fprintln(out, "Bye")
			return
		}
		s.exec(ctx, out, func(question string) bool { return confirm(scanner, out, question) }, cmd, rest)
	}
}

// confirm asks a yes/no question on the same input stream. Anything but
// y or yes, including EOF, declines.
func confirm(scanner *bufio.Scanner, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (s *Shell) exec(ctx context.Context, out io.Writer, ask func(string) bool, cmd, arg string) {
	switch cmd {
	case "help":
		fmt.Fprintln(out, help)
	case "record":
		s.record(ctx, out, arg)
	case "memos":
		memos := s.Memos.Search(arg)
		if len(memos) == 0 {
			fmt.Fprintln(out, "No memos")
		}
		for _, m := range memos {
			fmt.Fprintf(out, "%s  %-33s %s\n", m.ID, m.Title, models.FormatDuration(m.DurationMillis))
		}
	case "show":
		m, ok := s.Memos.Get(arg)
		if !ok {
			fmt.Fprintln(out, "Memo not found")
			return
		}
		fmt.Fprintf(out, "%s (%s)\n\n%s\n", m.Title, models.FormatDuration(m.DurationMillis), m.Transcript)
		if s.Admission.CanAccessFeature(ctx, models.FeatureAISummary) {
			fmt.Fprintf(out, "\nSummary: %s\nTags: %s\n", m.Summary, strings.Join(m.Tags, ", "))
		} else {
			fmt.Fprintln(out, "\nSummary: upgrade to Premium to see AI summaries")
		}
	case "title":
		id, title, _ := strings.Cut(arg, " ")
		title = strings.TrimSpace(title)
		if id == "" || title == "" {
			fmt.Fprintln(out, "Usage: title <id> <title>")
			return
		}
		if _, err := s.Memos.Update(ctx, id, models.MemoPatch{Title: &title}); err != nil {
			fmt.Fprintln(out, errMessage(err))
			return
		}
		fmt.Fprintln(out, "Memo updated")
	case "delete":
		if err := s.Flow.DeleteMemo(ctx, arg); err != nil {
			fmt.Fprintln(out, errMessage(err))
			return
		}
		fmt.Fprintln(out, "Memo deleted")
	case "export":
		if !s.Admission.CanAccessFeature(ctx, models.FeatureExport) {
			fmt.Fprintln(out, "Export is a Premium feature")
			return
		}
		text, err := s.Memos.Export(arg)
		if err != nil {
			fmt.Fprintln(out, errMessage(err))
			return
		}
		fmt.Fprintln(out, text)
	case "usage":
		premium := s.Entitlements.IsPremium(ctx)
		snap := s.Usage.Snapshot(ctx, premium)
		if premium {
			fmt.Fprintf(out, "Premium: unlimited recordings (%d this month)\n", snap.Count)
			return
		}
		fmt.Fprintf(out, "%d of %d free recordings used in %s\n", snap.Count, snap.Limit, snap.MonthKey)
	case "plans":
		for _, o := range models.Offerings() {
			fmt.Fprintf(out, "%-8s %-12s %s\n", o.ID, o.Price, o.Description)
		}
	case "upgrade":
		productID, ok := planProduct(arg)
		if !ok {
			fmt.Fprintln(out, "Usage: upgrade monthly|annual")
			return
		}
		fmt.Fprintln(out, billingMessage(s.Subscription.Purchase(ctx, productID)))
	case "restore":
		fmt.Fprintln(out, billingMessage(s.Subscription.Restore(ctx)))
	case "downgrade":
		if !ask("Are you sure you want to downgrade? You will lose access to Premium features.") {
			fmt.Fprintln(out, "Downgrade cancelled")
			return
		}
		if err := s.Subscription.Downgrade(ctx); err != nil {
			fmt.Fprintln(out, errMessage(err))
			return
		}
		fmt.Fprintln(out, "You are now on the free plan")
	case "theme":
		mode := service.ParseThemeMode(arg)
		if err := s.Preferences.SetTheme(ctx, mode); err != nil {
			fmt.Fprintln(out, errMessage(err))
			return
		}
		fmt.Fprintf(out, "Theme set to %s\n", mode)
	case "wipe":
		if !ask("Delete all memos and settings? This cannot be undone.") {
			fmt.Fprintln(out, "Nothing was deleted")
			return
		}
		if err := s.Wiper.Wipe(ctx); err != nil {
			fmt.Fprintln(out, errMessage(err))
			return
		}
		fmt.Fprintln(out, "All data cleared")
	default:
		fmt.Fprintln(out, "Unknown command. Type 'help' for a list of commands.")
	}
}

func (s *Shell) record(ctx context.Context, out io.Writer, text string) {
	if text == "" {
		fmt.Fprintln(out, "Usage: record <text>")
		return
	}
	if err := s.Flow.Start(ctx); err != nil {
		fmt.Fprintln(out, errMessage(err))
		return
	}
	s.Dictation.Dictate(text)
	if s.Flow.DurationExceeded(s.Flow.Elapsed()) {
		fmt.Fprintln(out, "Free recordings are limited, stopping")
	}
	memo, err := s.Flow.Finish(ctx)
	if err != nil {
		fmt.Fprintln(out, errMessage(err))
		return
	}
	fmt.Fprintf(out, "Saved %q (%s)\n", memo.Title, memo.ID)
}

func planProduct(plan string) (string, bool) {
	for _, o := range models.Offerings() {
		if o.ID == plan || o.ProductID == plan {
			return o.ProductID, true
		}
	}
	return "", false
}

func billingMessage(res models.BillingResult) string {
	switch res.Outcome {
	case models.OutcomePurchased:
		return "Welcome to Premium!"
	case models.OutcomeRestored, models.OutcomeAlreadyOwned:
		return "Your purchases have been restored"
	case models.OutcomeNothingToRestore:
		return "No previous purchases found"
	case models.OutcomeCancelled:
		return "Purchase cancelled"
	}
	if res.Retryable() {
		return fmt.Sprintf("Something went wrong (%s), please try again", res.Outcome)
	}
	return fmt.Sprintf("Purchase failed: %s", res.Outcome)
}

func errMessage(err error) string {
	var quota *service.QuotaExceededError
	switch {
	case errors.As(err, &quota):
		return quota.Reason
	case errors.Is(err, service.ErrPermissionDenied):
		return "Microphone access is needed to record"
	case errors.Is(err, service.ErrTranscriptionFailed):
		return "Failed to process recording"
	case errors.Is(err, service.ErrMemoNotFound):
		return "Memo not found"
	default:
		return "Error: " + err.Error()
	}
}
