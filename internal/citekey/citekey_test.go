package citekey

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain key", "Smith2020", "Smith2020"},
		{"empty", "", ""},
		{"at sign", "a@b", "ab"},
		{"all forbidden", `@'\,#}{~%/`, ""},
		{"path separator", "dir/key", "dirkey"},
		{"accents decomposed", "Müller2019", "Muller2019"},
		{"ligature compatibility", "ﬁsh", "fish"},
		{"no decomposition dropped", "Ørsted", "rsted"},
		{"control characters", "a\tb\nc\x7fd\u0085e", "abcde"},
		{"spaces kept", "van Dam", "van Dam"},
		{"cjk dropped", "李2020", "2020"},
		{"braces from latex", `{\"u}ber`, `"uber`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "Smith2020", "a@b", "Müller", "Ørsted", "ﬁ", "½", "x́",
		"李", "\x00\x1f\x7f\u009f", `{}~%`, "Ǆ", "℡", "Å",
	}
	for _, s := range inputs {
		once := Sanitize(s)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", s, once, twice)
		}
		if strings.ContainsAny(once, Forbidden) {
			t.Errorf("Sanitize(%q) = %q still contains forbidden characters", s, once)
		}
		for _, r := range once {
			if isControl(r) || r > 0x7e {
				t.Errorf("Sanitize(%q) = %q contains rune %U", s, once, r)
			}
		}
	}
}

func TestValid(t *testing.T) {
	if Valid("a@b") {
		t.Error("Valid(\"a@b\") = true, want false")
	}
	if !Valid("ab2020") {
		t.Error("Valid(\"ab2020\") = false, want true")
	}
	if !Valid("") {
		t.Error("Valid(\"\") = false, want true")
	}
}

func TestCheck(t *testing.T) {
	if err := Check("ab2020"); err != nil {
		t.Errorf("Check(ab2020) = %v, want nil", err)
	}
	err := Check("a/b")
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Check(a/b) = %v, want ErrInvalid", err)
	}
}

func TestCheckStored(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"ab2020", false},
		{"van Dam2020", false},
		{" ab", true},
		{"ab ", true},
		{"a/b", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := CheckStored(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckStored(%q) = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("CheckStored(%q) = %v, want ErrInvalid", tt.key, err)
			}
		})
	}
}
