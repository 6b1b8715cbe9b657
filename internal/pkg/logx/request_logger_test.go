package logx

import "testing"

func TestAnonymizeIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "203.0.113.42:5555", want: "203.0.113.0"},
		{in: "203.0.113.42", want: "203.0.113.0"},
		{in: "127.0.0.1:80", want: "127.0.0.1"},
		{in: "[2001:db8:1:2:3:4:5:6]:443", want: "2001:db8:1:2::"},
		{in: "not-an-ip", want: "unknown_ip"},
	}

	for _, tc := range cases {
		if got := anonymizeIP(tc.in); got != tc.want {
			t.Errorf("anonymizeIP(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}
