package vault

import (
	"strings"
	"testing"
)

func TestConfigValidateWeightSum(t *testing.T) {
	cfg := testConfig(MintDirect)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.AllocWeightsBps[ReserveNative] = 5_001
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "weights sum") {
		t.Fatalf("bad weight sum accepted: %v", err)
	}
}

func TestConfigValidateDenoms(t *testing.T) {
	cfg := testConfig(MintDirect)
	cfg.ReserveDenoms[ReserveAssetA] = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("blank reserve denom accepted")
	}
	cfg = testConfig(MintDirect)
	cfg.ReserveDenoms[ReserveAssetB] = cfg.BaseDenom
	if err := cfg.Validate(); err == nil {
		t.Fatal("reserve denom equal to base denom accepted")
	}
	cfg = testConfig(MintDirect)
	cfg.Owner = Address{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero owner accepted")
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr[19] != 0xaa {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
	roundTrip, err := ParseAddress(addr.Hex())
	if err != nil || roundTrip != addr {
		t.Fatalf("round trip failed: %v %s", err, roundTrip.Hex())
	}
	if _, err := ParseAddress("abcd"); err == nil {
		t.Fatal("short address accepted")
	}
	if _, err := ParseAddress("zz000000000000000000000000000000000000aa"); err == nil {
		t.Fatal("non-hex address accepted")
	}
}

func TestParseMintStrategy(t *testing.T) {
	cases := map[string]MintStrategy{
		"direct":   MintDirect,
		"DIRECT":   MintDirect,
		"pro_rata": MintProRata,
		"prorata":  MintProRata,
	}
	for input, want := range cases {
		got, err := ParseMintStrategy(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %v, %v", input, got, err)
		}
	}
	if _, err := ParseMintStrategy("balanced"); err == nil {
		t.Fatal("unknown strategy accepted")
	}
}
