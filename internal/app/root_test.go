package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	// Test that root command is properly configured
	if RootCmd.Use != "waybridge" {
		t.Errorf("expected Use to be 'waybridge', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	if !RootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if !RootCmd.SilenceErrors {
		t.Error("expected SilenceErrors to be true")
	}

	if RootCmd.SuggestionsMinimumDistance != 2 {
		t.Errorf("SuggestionsMinimumDistance = %d, want 2", RootCmd.SuggestionsMinimumDistance)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	// Test that subcommands are registered
	expectedCommands := []string{
		"serve", "status",
		"start", "stop", "restart", "freeze", "unfreeze",
		"apps", "backup", "restore", "settings", "monitor",
		"update", "setup",
	}

	foundCommands := make(map[string]bool)
	for _, cmd := range RootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestAppsSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range appsCmd.Commands() {
		found[cmd.Name()] = true
	}

	for _, expected := range []string{"hide", "show"} {
		if !found[expected] {
			t.Errorf("expected 'apps %s' to be registered", expected)
		}
	}
}

func TestSettingsSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range settingsCmd.Commands() {
		found[cmd.Name()] = true
	}

	for _, expected := range []string{"get", "set"} {
		if !found[expected] {
			t.Errorf("expected 'settings %s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	flag := RootCmd.PersistentFlags().Lookup("bus")
	if flag == nil {
		t.Fatal("expected --bus flag to be registered")
	}
	if flag.Usage == "" {
		t.Error("expected --bus flag to have usage text")
	}
}

func TestLoadConfigBusFlagOverride(t *testing.T) {
	oldBus := busNameFlag
	busNameFlag = "org.test.Waybridge"
	defer func() { busNameFlag = oldBus }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.BusName != "org.test.Waybridge" {
		t.Errorf("BusName = %q, want flag override 'org.test.Waybridge'", cfg.BusName)
	}
}

func TestHelpExitsZero(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	defer RootCmd.SetOut(nil)
	RootCmd.SetErr(bytes.NewBuffer(nil))
	defer RootCmd.SetErr(nil)

	RootCmd.SetArgs([]string{"--help"})
	if err := Execute(); err != nil {
		t.Errorf("expected Execute() with --help to succeed, got error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected help output to contain 'Usage:', got: %s", out)
	}
	if !strings.Contains(out, "serve") {
		t.Errorf("expected help output to list 'serve', got: %s", out)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	RootCmd.SetOut(bytes.NewBuffer(nil))
	defer RootCmd.SetOut(nil)
	RootCmd.SetErr(bytes.NewBuffer(nil))
	defer RootCmd.SetErr(nil)

	RootCmd.SetArgs([]string{"blorp"})
	err := Execute()
	if err == nil {
		t.Fatal("expected Execute() to return an error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected error to contain 'unknown command', got: %v", err)
	}
}
