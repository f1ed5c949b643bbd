package utils

import "testing"

func TestNormalizeMobile(t *testing.T) {
	cases := map[string]string{
		"9876543210":      "9876543210",
		"+91 98765 43210": "9876543210",
		"09876543210":     "9876543210",
		"98765-43210":     "9876543210",
	}
	for in, want := range cases {
		if got := NormalizeMobile(in); got != want {
			t.Fatalf("NormalizeMobile(%q) got %q want %q", in, got, want)
		}
	}
}

func TestIsValidMobile(t *testing.T) {
	if !IsValidMobile("9876543210") {
		t.Fatalf("expected 9876543210 to be valid")
	}
	if IsValidMobile("1234567890") {
		t.Fatalf("numbers starting with 1 are not mobile numbers")
	}
	if IsValidMobile("987654321") {
		t.Fatalf("9 digits should be rejected")
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("9876543210"); got != "******3210" {
		t.Fatalf("MaskPhone got %q", got)
	}
}

func TestGenerateOTPLength(t *testing.T) {
	for _, n := range []int{4, 6} {
		code := GenerateOTP(n)
		if !ValidateOTP(code, n) {
			t.Fatalf("GenerateOTP(%d) produced %q", n, code)
		}
	}
}
