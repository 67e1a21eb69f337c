package netease

import "testing"

func TestFilterCookie(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "keeps only required fragment",
			raw:  "MUSIC_U=abc;OTHER=xyz;",
			want: "MUSIC_U=abc;",
		},
		{
			name: "deduplicates repeated fragments",
			raw:  "MUSIC_U=abc;OTHER=xyz;MUSIC_U=abc;",
			want: "MUSIC_U=abc;",
		},
		{
			name: "preserves encounter order of distinct fragments",
			raw:  "MUSIC_U=first;NOISE=1;MUSIC_U=second;",
			want: "MUSIC_U=first;MUSIC_U=second;",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "no required fragment",
			raw:  "NMTID=a;JSESSIONID=b;",
			want: "",
		},
		{
			name: "tolerates surrounding whitespace",
			raw:  "NMTID=a; MUSIC_U=abc;",
			want: " MUSIC_U=abc;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterCookie(tt.raw); got != tt.want {
				t.Errorf("FilterCookie(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilterCookieIdempotent(t *testing.T) {
	raw := "MUSIC_U=abc;OTHER=xyz;MUSIC_U=abc;"
	once := FilterCookie(raw)
	twice := FilterCookie(once)
	if once != twice {
		t.Errorf("FilterCookie not idempotent: first %q, second %q", once, twice)
	}
}
