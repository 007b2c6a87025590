package booking

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRentalDays(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		want       int64
	}{
		{"same day", "2024-06-01", "2024-06-01", 1},
		{"weekend", "2024-06-01", "2024-06-03", 3},
		{"full week", "2024-06-01", "2024-06-07", 7},
		{"month boundary", "2024-06-28", "2024-07-02", 5},
		{"leap february", "2024-02-28", "2024-03-01", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RentalDays(date(tc.start), date(tc.end)); got != tc.want {
				t.Fatalf("RentalDays(%s, %s) = %d, want %d", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestRentalDaysAlwaysAtLeastOne(t *testing.T) {
	start := date("2024-01-01")
	for i := 0; i < 400; i++ {
		end := start.AddDate(0, 0, i)
		got := RentalDays(start, end)
		if got != int64(i)+1 {
			t.Fatalf("RentalDays(+%d days) = %d, want %d", i, got, i+1)
		}
		if got < 1 {
			t.Fatalf("RentalDays returned %d < 1", got)
		}
	}
}

func TestTotalPrice(t *testing.T) {
	cases := []struct {
		name        string
		pricePerDay int64
		start, end  string
		want        int64
	}{
		{"three days at 300", 300, "2024-06-01", "2024-06-03", 900},
		{"same day rental", 450, "2024-06-01", "2024-06-01", 450},
		{"free car", 0, "2024-06-01", "2024-06-10", 0},
		{"two weeks at 199", 199, "2024-06-01", "2024-06-14", 2786},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TotalPrice(tc.pricePerDay, date(tc.start), date(tc.end))
			if got != tc.want {
				t.Fatalf("TotalPrice(%d, %s, %s) = %d, want %d",
					tc.pricePerDay, tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	today := date("2024-06-01")
	cases := []struct {
		name       string
		start, end string
		want       error
	}{
		{"valid future range", "2024-06-02", "2024-06-05", nil},
		{"starts today", "2024-06-01", "2024-06-01", nil},
		{"inverted range", "2024-06-05", "2024-06-02", ErrEndBeforeStart},
		{"starts yesterday", "2024-05-31", "2024-06-02", ErrDateInPast},
		{"entirely in the past", "2024-05-01", "2024-05-03", ErrDateInPast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateRange(date(tc.start), date(tc.end), today); got != tc.want {
				t.Fatalf("ValidateRange(%s, %s) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-06-01"); err != nil {
		t.Fatalf("ParseDate valid: %v", err)
	}
	for _, bad := range []string{"", "01/06/2024", "2024-6-1", "2024-13-01", "tomorrow"} {
		if _, err := ParseDate(bad); err != ErrBadDate {
			t.Fatalf("ParseDate(%q) = %v, want ErrBadDate", bad, err)
		}
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical ranges", "2024-06-01", "2024-06-03", "2024-06-01", "2024-06-03", true},
		{"partial overlap", "2024-06-01", "2024-06-03", "2024-06-03", "2024-06-05", true},
		{"contained", "2024-06-01", "2024-06-10", "2024-06-04", "2024-06-05", true},
		{"shared single day", "2024-06-01", "2024-06-01", "2024-06-01", "2024-06-01", true},
		{"adjacent before", "2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04", false},
		{"adjacent after", "2024-06-03", "2024-06-04", "2024-06-01", "2024-06-02", false},
		{"disjoint", "2024-06-01", "2024-06-02", "2024-07-01", "2024-07-02", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(date(tc.aStart), date(tc.aEnd), date(tc.bStart), date(tc.bEnd))
			if got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			// overlap is symmetric
			if rev := Overlaps(date(tc.bStart), date(tc.bEnd), date(tc.aStart), date(tc.aEnd)); rev != got {
				t.Fatalf("Overlaps not symmetric: %v vs %v", got, rev)
			}
		})
	}
}
