package textutil_test

import (
	"testing"

	"github.com/RabowNicholas/swna-automation/internal/textutil"
)

func TestNormalizeKeepsLinesAndCollapsesNoise(t *testing.T) {
	raw := "Case ID Number:\t12345678  \r\nEmployee Name:   John   Smith\r\n\r\n\r\n\r\n-----\nﬁled"
	got := textutil.Normalize(raw)
	want := "Case ID Number: 12345678\nEmployee Name: John Smith\n\nfiled"
	if got != want {
		t.Fatalf("Normalize mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := textutil.Normalize(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestMatchingForm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"According to our records,\nyou have been DESIGNATED", "according to our records, you have been designated"},
		{"RD Accept B&E $150k", "rd accept b e $150k"},
		{"EN-16   “form”", "en-16 form"},
		{"Ｆｕｌｌｗｉｄｔｈ 50%", "fullwidth 50%"},
		{"  ", ""},
	}
	for _, tc := range tests {
		if got := textutil.MatchingForm(tc.in); got != tc.want {
			t.Fatalf("MatchingForm(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AR Ack", "AR Ack"},
		{"RD Accept B&E $150k", "RD Accept B&E $150k"},
		{"Dr. Jones IR 20%", "Dr. Jones IR 20%"},
		{"Bad/Name: x?", "Bad-Name- x"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tc := range tests {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
