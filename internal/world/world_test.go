package world

import (
	"testing"
	"time"
)

func TestSeedFromTime(t *testing.T) {
	tm := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	want := int64(2*356 + 2*24 + 3*60 + 4*60 + 5)
	if got := SeedFromTime(tm); got != want {
		t.Fatalf("SeedFromTime: got %d, want %d", got, want)
	}
}

func TestResolveSeed(t *testing.T) {
	now := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	if got := ResolveSeed(77, now); got != 77 {
		t.Fatalf("explicit seed: got %d, want 77", got)
	}
	if got := ResolveSeed(0, now); got != SeedFromTime(now) {
		t.Fatalf("zero seed: got %d, want %d", got, SeedFromTime(now))
	}
}
