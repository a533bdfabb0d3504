package cli

import (
	"strings"
	"testing"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("text", true)
	if !strings.HasPrefix(script, hookMarkerStart) {
		t.Errorf("script missing start marker: %q", script)
	}
	if !strings.Contains(script, "review staged --format text") {
		t.Errorf("script missing review command: %q", script)
	}
	if !strings.Contains(script, "exit 1") {
		t.Errorf("blocking script should exit 1 on findings: %q", script)
	}
	if !strings.HasSuffix(strings.TrimSpace(script), hookMarkerEnd) {
		t.Errorf("script missing end marker: %q", script)
	}
}

func TestGenerateHookScript_NonBlocking(t *testing.T) {
	script := generateHookScript("text", false)
	if strings.Contains(script, "exit 1") {
		t.Errorf("non-blocking script must not block the commit: %q", script)
	}
}

func TestReplaceHookSection_Appends(t *testing.T) {
	existing := "#!/bin/sh\necho hello\n"
	section := generateHookScript("text", false)

	got := replaceHookSection(existing, section)
	if !strings.Contains(got, "echo hello") {
		t.Errorf("existing hook content lost: %q", got)
	}
	if !strings.Contains(got, hookMarkerStart) {
		t.Errorf("section not appended: %q", got)
	}
}

func TestReplaceHookSection_ReplacesExisting(t *testing.T) {
	old := hookMarkerStart + "\nold command\n" + hookMarkerEnd + "\n"
	existing := "#!/bin/sh\n" + old + "echo after\n"
	section := generateHookScript("json", false)

	got := replaceHookSection(existing, section)
	if strings.Contains(got, "old command") {
		t.Errorf("old section survived replacement: %q", got)
	}
	if !strings.Contains(got, "--format json") {
		t.Errorf("new section missing: %q", got)
	}
	if !strings.Contains(got, "echo after") {
		t.Errorf("trailing content lost: %q", got)
	}
	if strings.Count(got, hookMarkerStart) != 1 {
		t.Errorf("duplicate sections: %q", got)
	}
}

func TestRemoveHookSection(t *testing.T) {
	section := generateHookScript("text", false)
	existing := "#!/bin/sh\necho before\n" + section + "echo after\n"

	got := removeHookSection(existing)
	if strings.Contains(got, hookMarkerStart) {
		t.Errorf("section not removed: %q", got)
	}
	if !strings.Contains(got, "echo before") || !strings.Contains(got, "echo after") {
		t.Errorf("surrounding content lost: %q", got)
	}
}

func TestRemoveHookSection_NoSection(t *testing.T) {
	existing := "#!/bin/sh\necho hello\n"
	if got := removeHookSection(existing); got != existing {
		t.Errorf("untouched hook changed: %q", got)
	}
}
