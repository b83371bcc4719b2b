package log

import "testing"

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CategoryPacket, "PACKET"},
		{CategoryDecodeError, "DECODE_ERROR"},
		{CategoryHookError, "HOOK_ERROR"},
		{CategoryRegistration, "REGISTRATION"},
		{Category(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for c := CategoryPacket; c <= CategoryRegistration; c++ {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseCategory("FRAME"); ok {
		t.Error("ParseCategory accepted an unknown name")
	}
}

func TestCategoryValues(t *testing.T) {
	// Values are part of the capture format and must not change.
	if CategoryPacket != 0 || CategoryDecodeError != 1 || CategoryHookError != 2 || CategoryRegistration != 3 {
		t.Error("category values changed")
	}
}
