package config

import (
	"testing"
	"time"
)

func TestEnvFallsBackWhenEmpty(t *testing.T) {
	t.Setenv("FACEPIPE_TEST_ADDR", "")
	if got := Env("FACEPIPE_TEST_ADDR", ":8080"); got != ":8080" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("FACEPIPE_TEST_ADDR", ":9000")
	if got := Env("FACEPIPE_TEST_ADDR", ":8080"); got != ":9000" {
		t.Fatalf("expected env value, got %q", got)
	}
}

func TestDurationAcceptsSecondsAndUnits(t *testing.T) {
	cases := map[string]time.Duration{
		"":    30 * time.Second,
		"45":  45 * time.Second,
		"1.5": 1500 * time.Millisecond,
		"2m":  2 * time.Minute,
	}
	for raw, want := range cases {
		t.Setenv("FACEPIPE_TEST_TIMEOUT", raw)
		got, err := Duration("FACEPIPE_TEST_TIMEOUT", 30*time.Second)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}

	t.Setenv("FACEPIPE_TEST_TIMEOUT", "soon")
	if _, err := Duration("FACEPIPE_TEST_TIMEOUT", time.Second); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNumericParsers(t *testing.T) {
	t.Setenv("FACEPIPE_TEST_MB", "2.5")
	if v, err := Float("FACEPIPE_TEST_MB", 5); err != nil || v != 2.5 {
		t.Fatalf("unexpected float %v %v", v, err)
	}
	t.Setenv("FACEPIPE_TEST_SIZE", "x")
	if _, err := Int("FACEPIPE_TEST_SIZE", 20); err == nil {
		t.Fatal("expected int parse error")
	}
	t.Setenv("FACEPIPE_TEST_SIZE", "")
	if v, _ := Int("FACEPIPE_TEST_SIZE", 20); v != 20 {
		t.Fatalf("expected fallback, got %d", v)
	}
}
