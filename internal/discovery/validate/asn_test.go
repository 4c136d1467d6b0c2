package validate

import "testing"

func TestValidASN(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		want       bool
	}{
		{"canonical form", "AS15169", true},
		{"plain numeric", "15169", true},
		{"lowercase prefix", "as15169", true},
		{"surrounding space", "  AS15169  ", true},
		{"32-bit", "AS396982", true},
		{"zero", "AS0", false},
		{"as-trans", "AS23456", false},
		{"documentation range", "AS64496", false},
		{"private 16-bit", "AS64512", false},
		{"private 16-bit upper", "AS65534", false},
		{"reserved 65535", "AS65535", false},
		{"over 32-bit", "AS4294967296", false},
		{"not a number", "ASGOOGLE", false},
		{"empty", "", false},
		{"negative", "AS-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidASN(tt.identifier); got != tt.want {
				t.Errorf("ValidASN(%q) = %v, want %v", tt.identifier, got, tt.want)
			}
		})
	}
}

func TestNormalizeASN(t *testing.T) {
	tests := []struct {
		identifier string
		wantNumber int
		wantOK     bool
	}{
		{"AS15169", 15169, true},
		{"15169", 15169, true},
		{"as8075", 8075, true},
		{"AS64512", 0, false},
		{"garbage", 0, false},
	}

	for _, tt := range tests {
		number, ok := NormalizeASN(tt.identifier)
		if number != tt.wantNumber || ok != tt.wantOK {
			t.Errorf("NormalizeASN(%q) = (%d, %v), want (%d, %v)",
				tt.identifier, number, ok, tt.wantNumber, tt.wantOK)
		}
	}
}

func TestFormatASN(t *testing.T) {
	if got := FormatASN(15169); got != "AS15169" {
		t.Errorf("FormatASN(15169) = %q, want AS15169", got)
	}
}

func TestASNRangeChecks(t *testing.T) {
	if !Is16BitASN(65535) {
		t.Error("65535 should be 16-bit")
	}
	if Is16BitASN(65536) {
		t.Error("65536 should not be 16-bit")
	}
	if !IsPrivateASN(64512) || !IsPrivateASN(65534) {
		t.Error("64512 and 65534 are private")
	}
	if IsPrivateASN(64511) || IsPrivateASN(65535) {
		t.Error("64511 and 65535 are not in the private range")
	}
	if !IsPrivateASN(4200000000) || !IsPrivateASN(4294967294) {
		t.Error("32-bit private range not recognized")
	}
	if IsPrivateASN(15169) {
		t.Error("15169 is a public assignment")
	}
}
