package config

import "testing"

func TestMergeConfigsPreservesBooleanDefaults(t *testing.T) {
	base := DefaultConfig()
	override := &Config{Replay: ReplayConfig{Mode: "record"}}
	raw := map[string]any{
		"replay": map[string]any{"mode": "record"},
	}

	mergeConfigs(base, override, raw)

	if !base.Storage.Enabled {
		t.Fatalf("storage enabled flag should remain true when not overridden")
	}
	if base.Editor.TickMS != 500 {
		t.Fatalf("tick should keep its default, got %d", base.Editor.TickMS)
	}
	if base.Replay.Mode != "record" {
		t.Fatalf("expected mode to be overridden")
	}
}

func TestMergeConfigsRespectsExplicitZeroes(t *testing.T) {
	base := DefaultConfig()
	base.Metrics.Addr = ":9100"
	override := &Config{}
	raw := map[string]any{
		"storage": map[string]any{"enabled": false},
		"metrics": map[string]any{"addr": ""},
		"editor":  map[string]any{"double_click_ms": 0},
	}

	mergeConfigs(base, override, raw)

	if base.Storage.Enabled {
		t.Fatal("storage should be disabled")
	}
	if base.Metrics.Addr != "" {
		t.Fatalf("metrics addr should be cleared, got %q", base.Metrics.Addr)
	}
	if base.Editor.DoubleClickMS != 0 {
		t.Fatalf("double click should be zero, got %d", base.Editor.DoubleClickMS)
	}
}

func TestBoolFieldSet(t *testing.T) {
	raw := map[string]any{"a": map[string]any{"b": true}}
	if !boolFieldSet(raw, "a", "b") {
		t.Fatal("a.b should be set")
	}
	if boolFieldSet(raw, "a", "c") || boolFieldSet(raw, "x") || boolFieldSet(nil, "a") || boolFieldSet(raw) {
		t.Fatal("missing paths should not be set")
	}
}
