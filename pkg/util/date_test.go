package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 7, 42, 0, time.UTC)
	to := time.Date(2024, 10, 10, 14, 33, 5, 0, time.UTC)

	gotFrom, gotTo := AlignFromTo(from, to, "15m")
	if gotFrom.Minute() != 0 || gotTo.Minute() != 45 {
		t.Fatalf("unexpected 15m alignment: %v %v", gotFrom, gotTo)
	}

	gotFrom, gotTo = AlignFromTo(from, to, "4h")
	if gotFrom.Hour() != 8 || gotTo.Hour() != 16 {
		t.Fatalf("unexpected 4h alignment: %v %v", gotFrom, gotTo)
	}
}

func TestAlignFromToOnBoundary(t *testing.T) {
	at := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	gotFrom, gotTo := AlignFromTo(at, at, "1h")
	if !gotFrom.Equal(at) || !gotTo.Equal(at) {
		t.Fatalf("boundary times must not move: %v %v", gotFrom, gotTo)
	}
}
