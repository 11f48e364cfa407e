package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func engineWithScript(t *testing.T, script string) *Engine {
	t.Helper()
	dir := t.TempDir()
	if script != "" {
		if err := os.WriteFile(filepath.Join(dir, "formulas.lua"), []byte(script), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestMissingScriptsDirUsesFallbacks(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if got := e.ExpForLevel(10); got != 15000 {
		t.Errorf("ExpForLevel(10) = %d, want 15000", got)
	}
	if got := e.PlayerRegenHP(5); got != 1 {
		t.Errorf("PlayerRegenHP(5) = %d, want floor of 1", got)
	}
	if got := e.PlayerRegenTP(200); got != 20 {
		t.Errorf("PlayerRegenTP(200) = %d, want 20", got)
	}
}

func TestScriptOverridesFormula(t *testing.T) {
	e := engineWithScript(t, `
function exp_for_level(level)
	return level * 100
end
`)
	if got := e.ExpForLevel(7); got != 700 {
		t.Errorf("ExpForLevel(7) = %d, want scripted 700", got)
	}
	// Functions the script does not define fall back.
	if got := e.PlayerRegenHP(50); got != 5 {
		t.Errorf("PlayerRegenHP(50) = %d, want fallback 5", got)
	}
}

func TestScriptedDamage(t *testing.T) {
	e := engineWithScript(t, `
function calc_damage(min_dam, max_dam, accuracy, armor, evade, critical)
	return max_dam - armor + critical
end
`)
	got := e.Damage(DamageContext{MinDam: 5, MaxDam: 20, TargetArmor: 4, Critical: true})
	if got != 17 {
		t.Errorf("Damage = %d, want 17", got)
	}
}

func TestScriptErrorFallsBack(t *testing.T) {
	e := engineWithScript(t, `
function exp_for_level(level)
	error("broken")
end
`)
	if got := e.ExpForLevel(10); got != 15000 {
		t.Errorf("ExpForLevel(10) = %d, want fallback 15000", got)
	}
}

func TestFallbackDamageBounds(t *testing.T) {
	e := engineWithScript(t, "")
	// High accuracy so nearly every roll hits; damage stays within the
	// min..max window after flat armor.
	for i := 0; i < 200; i++ {
		got := e.Damage(DamageContext{MinDam: 10, MaxDam: 14, Accuracy: 45, TargetArmor: 3})
		if got != 0 && (got < 7 || got > 11) {
			t.Fatalf("Damage = %d, want 0 or 7..11", got)
		}
	}
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Error("syntax error loaded without error")
	}
}
