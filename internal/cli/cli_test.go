package cli

import "testing"

func TestBuildOverrides(t *testing.T) {
	flagProvider = "openai"
	flagModel = "gpt-4.1"
	flagTokenBudget = 9000
	flagNoFixes = true
	t.Cleanup(func() {
		flagProvider, flagModel = "", ""
		flagTokenBudget = 0
		flagNoFixes = false
	})

	m := buildOverrides()
	if m["provider"] != "openai" || m["model"] != "gpt-4.1" {
		t.Errorf("overrides = %v", m)
	}
	if m["tokenBudget"] != "9000" {
		t.Errorf("tokenBudget = %q", m["tokenBudget"])
	}
	if m["inlineFixes"] != "false" {
		t.Errorf("inlineFixes = %q", m["inlineFixes"])
	}
}

func TestBuildOverrides_Empty(t *testing.T) {
	flagProvider, flagModel, flagFixModel, flagFormat = "", "", "", ""
	flagTokenBudget = 0
	flagNoFixes = false

	if m := buildOverrides(); len(m) != 0 {
		t.Errorf("overrides = %v, want empty", m)
	}
}
