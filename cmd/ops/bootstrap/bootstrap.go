package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ParameterType indicates whether an SSM parameter is stored as a
// SecureString (encrypted) or a plain String.
type ParameterType int

const (
	ParamSecureString ParameterType = iota
	ParamString
)

// BootstrapStep defines one parameter the rain alert job reads at startup.
type BootstrapStep struct {
	// HumanLabel is the display name shown to the operator.
	HumanLabel string

	// SSMKey is the key below the environment prefix, e.g. "twilio/auth_token".
	SSMKey string

	// EnvVar is the configuration variable the parameter populates. The job
	// finds it through EnvVar + "_SSM_PARAM".
	EnvVar string

	ParamType ParameterType
	Prompt    string

	// ValidateFn checks operator input. Nil accepts any non-empty value.
	ValidateFn func(ctx context.Context, input string) ValidationResult

	// IsSecret masks the input while it is typed.
	IsSecret bool
}

// maxRetries bounds validation attempts per step.
const maxRetries = 5

// errSkipped is returned by promptAndValidate when the operator leaves a
// parameter unset.
var errSkipped = errors.New("parameter skipped by operator")

// ValueLookup returns a value already known for envVar, either typed in
// this session or stored in SSM.
type ValueLookup func(ctx context.Context, envVar string) (string, error)

// BuildInventory returns the ordered steps. The account SID precedes the
// auth token so the token can be verified against it.
func BuildInventory(v *Validator, lookup ValueLookup) []BootstrapStep {
	return []BootstrapStep{
		{
			HumanLabel: "OpenWeatherMap API Key",
			SSMKey:     "owm/api_key",
			EnvVar:     "OWM_API_KEY",
			ParamType:  ParamSecureString,
			Prompt: `1. Sign in at openweathermap.org and open API keys.
   2. Copy an active key (new keys can take a couple of hours to activate).
   3. Paste it here:`,
			ValidateFn: v.ValidateOWMKey,
			IsSecret:   true,
		},
		{
			HumanLabel: "Twilio Account SID",
			SSMKey:     "twilio/account_sid",
			EnvVar:     "TWILIO_ACCOUNT_SID",
			ParamType:  ParamSecureString,
			Prompt: `1. Open the Twilio Console dashboard.
   2. Copy the Account SID (AC...) and paste it here:`,
			ValidateFn: v.ValidateTwilioSID,
		},
		{
			HumanLabel: "Twilio Auth Token",
			SSMKey:     "twilio/auth_token",
			EnvVar:     "TWILIO_AUTH_TOKEN",
			ParamType:  ParamSecureString,
			Prompt:     `Paste the Auth Token shown next to the Account SID:`,
			ValidateFn: func(ctx context.Context, input string) ValidationResult {
				sid, err := lookup(ctx, "TWILIO_ACCOUNT_SID")
				if err != nil {
					return ValidationResult{Message: fmt.Sprintf("cannot read the account SID: %v", err)}
				}
				return v.ValidateTwilioAuthToken(ctx, sid, input)
			},
			IsSecret: true,
		},
		{
			HumanLabel: "Twilio Sender Number",
			SSMKey:     "twilio/from_number",
			EnvVar:     "MY_TWILIO_PHONE_NO",
			ParamType:  ParamString,
			Prompt:     `Paste the Twilio phone number that sends the alert (E.164, e.g. +15005550006):`,
			ValidateFn: func(ctx context.Context, input string) ValidationResult {
				return v.ValidatePhoneNumber(ctx, input, "sender number")
			},
		},
		{
			HumanLabel: "Alert Recipient Number",
			SSMKey:     "alerts/recipient_number",
			EnvVar:     "MY_PHONE_NO",
			ParamType:  ParamString,
			Prompt:     `Paste the phone number that receives the alert (E.164):`,
			ValidateFn: func(ctx context.Context, input string) ValidationResult {
				return v.ValidatePhoneNumber(ctx, input, "recipient number")
			},
		},
	}
}

// BootstrapRunner walks the inventory. It is separated from main() so tests
// can inject SSM and stdin.
type BootstrapRunner struct {
	SSM       *SSMManager
	Validator *Validator
	Stdin     io.Reader
	Stderr    io.Writer
	Stdout    io.Writer

	// collected holds values entered this session, keyed by EnvVar.
	collected map[string]string

	// scanner is shared so that buffered input is not lost between prompts.
	scanner *bufio.Scanner

	// inventoryOverride replaces BuildInventory in tests.
	inventoryOverride []BootstrapStep
}

// NewBootstrapRunner creates a BootstrapRunner with production dependencies.
func NewBootstrapRunner(bctx *BootstrapContext, v *Validator) *BootstrapRunner {
	return &BootstrapRunner{
		SSM:       NewSSMManager(bctx),
		Validator: v,
		Stdin:     os.Stdin,
		Stderr:    os.Stderr,
		Stdout:    os.Stdout,
	}
}

type stepResult struct {
	Label  string
	Action string // "written", "skipped", "overwritten"
	Path   string
	EnvVar string
}

// Run processes every step, prints a summary to Stderr, and prints the
// `_SSM_PARAM` bindings for the stored parameters to Stdout.
func (r *BootstrapRunner) Run(ctx context.Context) error {
	inventory := r.inventoryOverride
	if inventory == nil {
		inventory = BuildInventory(r.Validator, r.lookup)
	}

	results := make([]stepResult, 0, len(inventory))
	for i, step := range inventory {
		fmt.Fprintf(r.Stderr, "\n[%d/%d] %s\n", i+1, len(inventory), step.HumanLabel)

		result, err := r.processStep(ctx, step)
		if err != nil {
			return fmt.Errorf("step %q failed: %w", step.HumanLabel, err)
		}
		results = append(results, result)
	}

	r.printSummary(results)
	r.printBindings(results)
	return nil
}

func (r *BootstrapRunner) processStep(ctx context.Context, step BootstrapStep) (stepResult, error) {
	path := r.SSM.SSMPath(step.SSMKey)
	result := stepResult{Label: step.HumanLabel, Path: path, EnvVar: step.EnvVar}

	exists, err := r.SSM.ParameterExists(ctx, path)
	if err != nil {
		return result, fmt.Errorf("checking existence of %s: %w", path, err)
	}

	if exists {
		fmt.Fprintf(r.Stderr, "  Parameter already exists: %s\n", path)

		choice, err := r.promptSkipOrOverwrite()
		if err != nil {
			return result, fmt.Errorf("reading skip/overwrite choice: %w", err)
		}
		if choice == "skip" {
			fmt.Fprintf(r.Stderr, "  Kept existing value.\n")
			result.Action = "kept"
			return result, nil
		}
	}

	value, err := r.promptAndValidate(ctx, step)
	if errors.Is(err, errSkipped) {
		fmt.Fprintf(r.Stderr, "  Skipped.\n")
		result.Action = "skipped"
		return result, nil
	}
	if err != nil {
		return result, err
	}

	if step.ParamType == ParamSecureString {
		err = r.SSM.PutSecret(ctx, path, value, exists)
	} else {
		err = r.SSM.PutString(ctx, path, value)
	}
	if err != nil {
		return result, fmt.Errorf("writing SSM parameter %s: %w", path, err)
	}

	if r.collected == nil {
		r.collected = make(map[string]string)
	}
	r.collected[step.EnvVar] = value

	if exists {
		result.Action = "overwritten"
	} else {
		result.Action = "written"
	}
	fmt.Fprintf(r.Stderr, "  Stored: %s\n", path)
	return result, nil
}

// lookup returns the value for envVar typed this session, falling back to
// the stored SSM parameter.
func (r *BootstrapRunner) lookup(ctx context.Context, envVar string) (string, error) {
	if v, ok := r.collected[envVar]; ok {
		return v, nil
	}
	inventory := r.inventoryOverride
	if inventory == nil {
		inventory = BuildInventory(r.Validator, r.lookup)
	}
	for _, step := range inventory {
		if step.EnvVar == envVar {
			return r.SSM.GetParameterValue(ctx, r.SSM.SSMPath(step.SSMKey))
		}
	}
	return "", fmt.Errorf("no parameter for %s", envVar)
}

// promptAndValidate reads input until it validates, the operator skips, or
// maxRetries is reached. Secret inputs are never echoed.
func (r *BootstrapRunner) promptAndValidate(ctx context.Context, step BootstrapStep) (string, error) {
	fmt.Fprintf(r.Stderr, "\n  %s\n\n", step.Prompt)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var input string
		var err error
		if step.IsSecret {
			input, err = r.readSecretInput("  > ")
		} else {
			input, err = r.readInput("  > ")
		}
		if err != nil {
			return "", fmt.Errorf("reading input for %s: %w", step.HumanLabel, err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			choice, choiceErr := r.promptSkipOrRetry()
			if choiceErr != nil {
				return "", fmt.Errorf("reading skip/retry choice for %s: %w", step.HumanLabel, choiceErr)
			}
			if choice == "skip" {
				return "", errSkipped
			}
			// Retrying after empty input does not use up an attempt.
			attempt--
			continue
		}

		if step.IsSecret {
			fmt.Fprintf(r.Stderr, "  Received %d chars.\n", len(input))
		}

		if step.ValidateFn != nil {
			vr := step.ValidateFn(ctx, input)
			if !vr.Valid {
				fmt.Fprintf(r.Stderr, "  Validation failed: %s\n", vr.Message)
				if attempt < maxRetries {
					fmt.Fprintf(r.Stderr, "  Try again (%d/%d).\n", attempt, maxRetries)
				}
				continue
			}
			fmt.Fprintf(r.Stderr, "  Validated: %s\n", vr.Message)
		}

		return input, nil
	}

	return "", fmt.Errorf("maximum retries (%d) exceeded for %s", maxRetries, step.HumanLabel)
}

func (r *BootstrapRunner) getScanner() *bufio.Scanner {
	if r.scanner == nil {
		r.scanner = bufio.NewScanner(r.Stdin)
	}
	return r.scanner
}

// scanLine reads one line, returning io.EOF when input is exhausted.
func (r *BootstrapRunner) scanLine() (string, error) {
	s := r.getScanner()
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.Text(), nil
}

func (r *BootstrapRunner) readInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)
	return r.scanLine()
}

// readSecretInput disables echo when stdin is a terminal and falls back to
// plain line reading for piped input.
func (r *BootstrapRunner) readSecretInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)

	if f, ok := r.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return string(secret), nil
	}

	return r.scanLine()
}

// promptSkipOrOverwrite returns "skip" or "overwrite".
func (r *BootstrapRunner) promptSkipOrOverwrite() (string, error) {
	for {
		fmt.Fprint(r.Stderr, "  [S]kip or [O]verwrite? ")

		line, err := r.scanLine()
		if err != nil {
			return "", err
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "s", "skip":
			return "skip", nil
		case "o", "overwrite":
			return "overwrite", nil
		default:
			fmt.Fprintf(r.Stderr, "  Please enter 'S' to skip or 'O' to overwrite.\n")
		}
	}
}

// promptSkipOrRetry returns "skip" or "retry".
func (r *BootstrapRunner) promptSkipOrRetry() (string, error) {
	for {
		fmt.Fprint(r.Stderr, "  No input received. [S]kip this parameter or [R]etry? ")

		line, err := r.scanLine()
		if err != nil {
			return "", err
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "s", "skip":
			return "skip", nil
		case "r", "retry":
			return "retry", nil
		default:
			fmt.Fprintf(r.Stderr, "  Please enter 'S' to skip or 'R' to retry.\n")
		}
	}
}

func (r *BootstrapRunner) printSummary(results []stepResult) {
	fmt.Fprintf(r.Stderr, "\n============================================================\n")
	fmt.Fprintf(r.Stderr, "  Bootstrap Summary\n")
	fmt.Fprintf(r.Stderr, "============================================================\n")

	counts := map[string]int{}
	for _, res := range results {
		counts[res.Action]++
		fmt.Fprintf(r.Stderr, "  %-14s %s\n", "["+strings.ToUpper(res.Action)+"]", res.Label)
	}

	fmt.Fprintf(r.Stderr, "------------------------------------------------------------\n")
	fmt.Fprintf(r.Stderr, "  Total: %d parameters\n", len(results))
	fmt.Fprintf(r.Stderr, "  Written: %d | Overwritten: %d | Kept: %d | Skipped: %d\n",
		counts["written"], counts["overwritten"], counts["kept"], counts["skipped"])
	fmt.Fprintf(r.Stderr, "============================================================\n")
	if counts["skipped"] > 0 {
		fmt.Fprintf(r.Stderr, "\n  Skipped parameters must be set before the job can send alerts.\n")
	}
}

// printBindings writes one KEY_SSM_PARAM=path line per parameter present in
// SSM, ready for the function's environment.
func (r *BootstrapRunner) printBindings(results []stepResult) {
	if r.Stdout == nil {
		return
	}
	for _, res := range results {
		if res.Action == "skipped" {
			continue
		}
		fmt.Fprintf(r.Stdout, "%s_SSM_PARAM=%s\n", res.EnvVar, res.Path)
	}
}
