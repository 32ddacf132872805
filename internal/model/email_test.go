package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "a@x.com", true},
		{"mixed case preserved", "Alice.Smith@Example.ORG", true},
		{"plus tag", "bob+quotes@mail.example.com", true},
		{"empty", "", false},
		{"missing at", "alice.example.com", false},
		{"missing tld", "alice@example", false},
		{"two ats", "a@b@c.com", false},
		{"inner space", "al ice@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidEmail(tt.input); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	got, err := NormalizeEmail("  Carol@Example.com \n")
	if err != nil {
		t.Fatalf("NormalizeEmail returned error: %v", err)
	}
	if got != "Carol@Example.com" {
		t.Errorf("NormalizeEmail = %q, want %q", got, "Carol@Example.com")
	}

	if _, err := NormalizeEmail("not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("NormalizeEmail error = %v, want ErrInvalidEmail", err)
	}
}

func TestSplitAddresses(t *testing.T) {
	t.Parallel()

	raw := "a@x.com, b@x.com\n\n  c@x.com\r\n,,d@x.com  "
	want := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}

	if got := SplitAddresses(raw); !reflect.DeepEqual(got, want) {
		t.Errorf("SplitAddresses = %v, want %v", got, want)
	}

	if got := SplitAddresses("  \n , "); len(got) != 0 {
		t.Errorf("SplitAddresses of blanks = %v, want empty", got)
	}
}

func TestRedactEmail(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"alice@example.com": "al***@example.com",
		"ab@example.com":    "***@example.com",
		"garbage":           "***@***",
	}
	for in, want := range tests {
		if got := RedactEmail(in); got != want {
			t.Errorf("RedactEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseListName(t *testing.T) {
	t.Parallel()

	for _, l := range AllLists {
		got, err := ParseListName(string(l))
		if err != nil || got != l {
			t.Errorf("ParseListName(%q) = %q, %v", l, got, err)
		}
	}

	if _, err := ParseListName("bounced"); err == nil {
		t.Error("ParseListName should reject unknown list")
	}
}
