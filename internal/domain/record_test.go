package domain

import "testing"

func TestNormalizeWebsite(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"https://uni.edu/~prof/", "https://uni.edu/~prof"},
		{"  https://uni.edu/~prof  ", "https://uni.edu/~prof"},
		{"https://uni.edu/~prof", "https://uni.edu/~prof"},
		{"https://uni.edu//", "https://uni.edu"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeWebsite(tc.in); got != tc.want {
			t.Fatalf("NormalizeWebsite(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRecordPending(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fit  string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"nan", true},
		{"None", true},
		{"NULL", true},
		{"Erro", true},
		{string(FitMuitoAlto), false},
		{string(FitAlto), false},
		{string(FitBaixo), false},
		{string(FitMuitoBaixo), false},
		{string(FitNA), false},
	}
	for _, tc := range cases {
		rec := &Record{Fit: tc.fit}
		if got := rec.Pending(); got != tc.want {
			t.Fatalf("Pending with fit %q = %v, want %v", tc.fit, got, tc.want)
		}
	}
}

func TestFitRank(t *testing.T) {
	t.Parallel()

	order := []string{
		string(FitMuitoAlto), string(FitAlto), string(FitBaixo), string(FitMuitoBaixo),
	}
	for i := 1; i < len(order); i++ {
		if FitRank(order[i-1]) >= FitRank(order[i]) {
			t.Fatalf("rank of %q must precede %q", order[i-1], order[i])
		}
	}
	if FitRank(string(FitErro)) != FitRank("") || FitRank(string(FitNA)) != 99 {
		t.Fatal("errors, unknowns and empties must all sort last")
	}
}
