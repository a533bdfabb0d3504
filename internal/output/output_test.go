package output

import "testing"

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json", "markdown"} {
		w, err := GetWriter(format)
		if err != nil {
			t.Errorf("GetWriter(%q) error: %v", format, err)
		}
		if w == nil {
			t.Errorf("GetWriter(%q) returned nil writer", format)
		}
	}
}

func TestGetWriter_Unsupported(t *testing.T) {
	if _, err := GetWriter("yaml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
