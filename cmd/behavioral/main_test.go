package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "behavioral.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "behavioral version "+version+"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCheck(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
behaviors:
  - name: reveal
    attributes: [reveal-delay]
    commands: [--show, --toggle]
  - name: logger
`)

	out, err := execute(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	for _, want := range []string{
		"ok  reveal  attributes: reveal-delay  commands: --show --toggle",
		"ok  logger\n",
		"2 behaviors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckRejectsBadManifest(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
behaviors:
  - name: reveal
    attributes: [delay]
`)
	if _, err := execute(t, "check", "--config", path); err == nil {
		t.Error("check should fail on an unprefixed attribute")
	}
}

func TestBadLogLevelFlag(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	if _, err := execute(t, "check", "--config", path, "--log-level", "loud"); err == nil {
		t.Error("an invalid --log-level should fail")
	}
}

func TestStamp(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "site")
	if err := os.MkdirAll(site, 0755); err != nil {
		t.Fatal(err)
	}
	page := filepath.Join(site, "index.html")
	if err := os.WriteFile(page, []byte(`<!DOCTYPE html><html><body><div behavior="reveal"></div></body></html>`), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, dir, "behaviors:\n  - name: reveal\n")

	out, err := execute(t, "stamp", "--config", path, "--dry-run", site)
	if err != nil {
		t.Fatalf("stamp --dry-run error = %v", err)
	}
	if !strings.Contains(out, "would stamp index.html (1 elements)") {
		t.Errorf("dry run output = %q", out)
	}

	out, err = execute(t, "stamp", "--config", path, site)
	if err != nil {
		t.Fatalf("stamp error = %v", err)
	}
	if !strings.Contains(out, "stamped index.html (1 elements)") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `is="behavioral-reveal"`) {
		t.Errorf("index.html = %s", data)
	}
}
