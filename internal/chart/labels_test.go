package chart

import "testing"

func TestLabelFormatter(t *testing.T) {
	f := NewLabelFormatter("en")
	cases := []struct {
		got, want string
	}{
		{f.Signed(350), "+350"},
		{f.Signed(-200), "-200"},
		{f.Signed(0), "0"},
		{f.Plain(1250), "1,250"},
		{f.Plain(12.345), "12.35"},
		{f.Range(Range{Total: true, Cumulative: 1250}), "1,250"},
		{f.Range(Range{Change: 1500}), "+1,500"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, tc.got)
		}
	}
}

func TestLabelFormatterUnknownLocale(t *testing.T) {
	if got := NewLabelFormatter("not a locale!").Plain(1000); got != "1,000" {
		t.Fatalf("expected english grouping, got %q", got)
	}
}
