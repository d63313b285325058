package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    bootstrapOptions
		wantErr string
	}{
		{"dev", bootstrapOptions{env: "dev", latitude: defaultLatitude, longitude: defaultLongitude}, ""},
		{"prod", bootstrapOptions{env: "prod"}, ""},
		{"missing env", bootstrapOptions{}, "--env is required"},
		{"local is not a target", bootstrapOptions{env: "local"}, "invalid environment"},
		{"case-sensitive", bootstrapOptions{env: "DEV"}, "invalid environment"},
		{"bad latitude", bootstrapOptions{env: "dev", latitude: 95}, "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOptions(tt.opts)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRootCmd_RequiresEnv(t *testing.T) {
	cmd := newRootCmd(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--env is required") {
		t.Fatalf("expected missing --env error, got %v", err)
	}
}

func TestConfirmProduction(t *testing.T) {
	bctx := &BootstrapContext{
		Environment: "prod",
		AccountID:   "123456789012",
		AWSRegion:   "eu-north-1",
		CallerARN:   "arn:aws:iam::123456789012:user/test",
	}

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"accepts yes", "yes\n", true},
		{"accepts YES", "YES\n", true},
		{"accepts yes with spaces", "  yes  \n", true},
		{"rejects no", "no\n", false},
		{"rejects empty", "\n", false},
		{"rejects EOF", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			if got := confirmProduction(bctx, strings.NewReader(tt.input), out); got != tt.expected {
				t.Errorf("confirmProduction(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			if !strings.Contains(out.String(), "PRODUCTION") {
				t.Error("expected production warning")
			}
		})
	}
}

func TestPrintBanner(t *testing.T) {
	bctx := &BootstrapContext{
		Environment: "staging",
		AWSProfile:  "rainalert-staging",
		AWSRegion:   "eu-north-1",
		AccountID:   "123456789012",
		CallerARN:   "arn:aws:iam::123456789012:user/ops",
	}

	out := &bytes.Buffer{}
	printBanner(bctx, out)

	for _, want := range []string{"staging", "rainalert-staging", "eu-north-1", "123456789012", "/staging/rainalert/"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("banner missing %q:\n%s", want, out.String())
		}
	}
}

func TestPrintBannerWithoutProfile(t *testing.T) {
	out := &bytes.Buffer{}
	printBanner(&BootstrapContext{Environment: "dev"}, out)

	if strings.Contains(out.String(), "Profile:") {
		t.Error("banner should omit the profile line when no profile is set")
	}
}
