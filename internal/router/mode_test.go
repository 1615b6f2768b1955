package router

import "testing"

func TestParseMode(t *testing.T) {
	cases := []struct {
		value string
		want  Mode
	}{
		{"", ModeProduction},
		{"production", ModeProduction},
		{"prod", ModeProduction},
		{"PRODUCTION", ModeProduction},
		{"  production  ", ModeProduction},
		{"development", ModeDevelopment},
		{"dev", ModeDevelopment},
		{"Dev", ModeDevelopment},
	}

	for _, tc := range cases {
		got, err := ParseMode(tc.value)
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestParseMode_Unknown(t *testing.T) {
	for _, value := range []string{"staging", "test", "prodution"} {
		if _, err := ParseMode(value); err == nil {
			t.Errorf("ParseMode(%q) succeeded, want error", value)
		}
	}
}
