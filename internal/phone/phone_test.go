package phone

import (
	"errors"
	"testing"
)

func TestNormalize_Equivalence(t *testing.T) {
	inputs := []string{
		"243900000001",
		"+243900000001",
		"  +243900000001  ",
		"\t243900000001\n",
		"+243 900 000 001",
	}
	for _, in := range inputs {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != "243900000001" {
			t.Errorf("Normalize(%q) = %q, want 243900000001", in, got)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "+", "12345678", "1234567890123456", "24390000000a", "++243900000001", "243-900-000-001"} {
		if _, err := Normalize(in); !errors.Is(err, ErrInvalidPhone) {
			t.Errorf("Normalize(%q) err = %v, want ErrInvalidPhone", in, err)
		}
	}
}

func TestNormalize_Bounds(t *testing.T) {
	if _, err := Normalize("123456789"); err != nil {
		t.Errorf("9 digits should be accepted: %v", err)
	}
	if _, err := Normalize("123456789012345"); err != nil {
		t.Errorf("15 digits should be accepted: %v", err)
	}
}

func TestMask(t *testing.T) {
	if got := Mask("243900000001"); got != "2439****0001" {
		t.Errorf("Mask = %q", got)
	}
	if got := Mask("1234"); got != "****" {
		t.Errorf("Mask short = %q", got)
	}
}
