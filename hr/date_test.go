package hr

import (
	"encoding/json"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || int(d.Month()) != 3 || d.Day() != 10 {
		t.Errorf("got %s", d)
	}

	if _, err := ParseDate("10/03/2024"); err == nil {
		t.Error("expected error for non-ISO format")
	}
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2024, 3, 10)
	b := NewDate(2024, 3, 11)

	if !a.Before(b) || b.Before(a) {
		t.Error("Before is wrong")
	}
	if !a.BeforeOrEqual(a) || !a.AfterOrEqual(a) {
		t.Error("same-day comparisons should be inclusive")
	}
	if !b.After(a) {
		t.Error("After is wrong")
	}
}

func TestDateWithYear(t *testing.T) {
	d := NewDate(2020, 5, 15)
	if got := d.WithYear(2026); !got.Equal(NewDate(2026, 5, 15)) {
		t.Errorf("got %s", got)
	}

	// Feb 29 normalizes to Mar 1 in non-leap years.
	leap := NewDate(2020, 2, 29)
	if got := leap.WithYear(2023); !got.Equal(NewDate(2023, 3, 1)) {
		t.Errorf("got %s", got)
	}
	if got := leap.WithYear(2024); !got.Equal(NewDate(2024, 2, 29)) {
		t.Errorf("got %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 3, 10)

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"2024-03-10"` {
		t.Errorf("got %s", raw)
	}

	var back Date
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip changed the date: %s", back)
	}

	// null and empty string both decode to the zero date
	var zero Date
	if err := json.Unmarshal([]byte("null"), &zero); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !zero.IsZero() {
		t.Error("null should decode to the zero date")
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 1, 31)

	if got := d.AddDays(1); !got.Equal(NewDate(2024, 2, 1)) {
		t.Errorf("AddDays: got %s", got)
	}
	if got := NewDate(2024, 6, 15).AddMonths(2); !got.Equal(NewDate(2024, 8, 15)) {
		t.Errorf("AddMonths: got %s", got)
	}
	if got := d.AddYears(1); !got.Equal(NewDate(2025, 1, 31)) {
		t.Errorf("AddYears: got %s", got)
	}
}
