package services

import (
	"testing"
)

func TestSettingsDefaults(t *testing.T) {
	st := newTestStack(t)

	if got := st.settings.String("nope", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := st.settings.Int("nope", 42); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := st.settings.List("nope"); got != nil {
		t.Errorf("expected nil list, got %v", got)
	}
}

func TestSettingsPutAndRead(t *testing.T) {
	st := newTestStack(t)

	if err := st.settings.Put("limit", "15"); err != nil {
		t.Fatal(err)
	}
	if got := st.settings.Int("limit", 0); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}

	// Put must invalidate the cached value.
	if err := st.settings.Put("limit", "20"); err != nil {
		t.Fatal(err)
	}
	if got := st.settings.Int("limit", 0); got != 20 {
		t.Errorf("stale cache: expected 20, got %d", got)
	}

	// Garbage ints fall back.
	if err := st.settings.Put("limit", "abc"); err != nil {
		t.Fatal(err)
	}
	if got := st.settings.Int("limit", 7); got != 7 {
		t.Errorf("expected fallback on unparsable int, got %d", got)
	}
}

func TestSettingsList(t *testing.T) {
	st := newTestStack(t)

	if err := st.settings.Put("mimes", " application/pdf , txt ,, png "); err != nil {
		t.Fatal(err)
	}
	got := st.settings.List("mimes")
	want := []string{"application/pdf", "txt", "png"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q want %q", i, got[i], want[i])
		}
	}
}
