package auth

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+2250777777777", "+2250777777777", false},
		{"2250777777777", "+2250777777777", false},
		{"+225 07 77 77 77 77", "+2250777777777", false},
		{"(225) 07-77-77-77-77", "+2250777777777", false},
		{"12345", "", true},
		{"", "", true},
		{"+1234567890123456", "", true},
	}

	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizePhone(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhone(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
