package lang

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	body := `announce_mute: "{victim} silenced by {name}"`
	if err := os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(dir, "en")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.AnnounceMute != "{victim} silenced by {name}" {
		t.Errorf("announce_mute = %q", tbl.AnnounceMute)
	}
	// Keys absent from the file keep their English defaults.
	if tbl.GlobalLocked != "global chat is locked" {
		t.Errorf("global_locked = %q", tbl.GlobalLocked)
	}
}

func TestLoadMissingLanguage(t *testing.T) {
	if _, err := Load(t.TempDir(), "xx"); err == nil {
		t.Error("missing language file loaded without error")
	}
}

func TestSub(t *testing.T) {
	tests := []struct {
		template string
		pairs    []string
		want     string
	}{
		{"{victim} has been muted by {name}", []string{"victim", "bob", "name", "GM"}, "bob has been muted by GM"},
		{"no placeholders", []string{"name", "GM"}, "no placeholders"},
		{"{name} and {name}", []string{"name", "x"}, "x and x"},
		{"{state}", nil, "{state}"},
	}
	for _, tt := range tests {
		if got := Sub(tt.template, tt.pairs...); got != tt.want {
			t.Errorf("Sub(%q, %v) = %q, want %q", tt.template, tt.pairs, got, tt.want)
		}
	}
}
