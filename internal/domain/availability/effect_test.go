package availability

import "testing"

func TestEffectAllows(t *testing.T) {
	if !EffectAllow.Allows() {
		t.Error("allow should allow")
	}
	if EffectDeny.Allows() {
		t.Error("deny should not allow")
	}
	if Effect("maybe").Allows() {
		t.Error("unknown effects should not allow")
	}
}

func TestEffectValid(t *testing.T) {
	if !EffectAllow.Valid() || !EffectDeny.Valid() {
		t.Error("both known effects should be valid")
	}
	for _, e := range []Effect{"", "maybe", "ALLOW"} {
		if e.Valid() {
			t.Errorf("%q should be invalid", e)
		}
	}
}

func TestParseEffect(t *testing.T) {
	for s, want := range map[string]Effect{"allow": EffectAllow, "deny": EffectDeny} {
		got, err := ParseEffect(s)
		if err != nil || got != want {
			t.Errorf("ParseEffect(%q) = %v, %v", s, got, err)
		}
	}
	for _, s := range []string{"", "Allow", "block"} {
		if _, err := ParseEffect(s); err == nil {
			t.Errorf("ParseEffect(%q) should fail", s)
		}
	}
}
