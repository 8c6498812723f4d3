package wallet

import (
	"math/big"
	"testing"
)

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"0", 18, "0"},
		{"1000000000000000000", 18, "1"},
		{"1500000000000000000", 18, "1.5"},
		{"1000001", 6, "1.000001"},
		{"123", 0, "123"},
		{"50000", 6, "0.05"},
	}
	for _, tc := range cases {
		amount, _ := new(big.Int).SetString(tc.amount, 10)
		if got := FormatUnits(amount, tc.decimals); got != tc.want {
			t.Errorf("FormatUnits(%s, %d) = %q, want %q", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"0.05", 6, "50000"},
		{".5", 6, "500000"},
		{"123", 0, "123"},
	}
	for _, tc := range cases {
		got, err := ParseUnits(tc.amount, tc.decimals)
		if err != nil {
			t.Errorf("ParseUnits(%q, %d) 失败: %v", tc.amount, tc.decimals, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseUnits(%q, %d) = %s, want %s", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestParseUnitsRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3"} {
		if _, err := ParseUnits(input, 6); err == nil {
			t.Errorf("ParseUnits(%q) 应报错", input)
		}
	}
	if _, err := ParseUnits("0.1234567", 6); err == nil {
		t.Error("超出精度的金额应报错")
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, amount := range []string{"1", "0.5", "123.456789"} {
		parsed, err := ParseUnits(amount, 18)
		if err != nil {
			t.Fatalf("ParseUnits(%q) 失败: %v", amount, err)
		}
		if got := FormatUnits(parsed, 18); got != amount {
			t.Errorf("往返结果不符: %q -> %q", amount, got)
		}
	}
}
