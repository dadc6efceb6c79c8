package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"missing", "", ErrCredentialMissing},
		{"whitespace only", "   ", ErrCredentialMissing},
		{"wrong prefix", "sk-" + strings.Repeat("a", 40), ErrCredentialInvalid},
		{"too short", "AIzaShort", ErrCredentialInvalid},
		{"valid", "AIza" + strings.Repeat("b", 35), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIKey: tt.key}
			err := cfg.ValidateCredential()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected valid credential, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultThresholds(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.SafeThreshold != 80 || cfg.CautionThreshold != 50 {
		t.Errorf("unexpected default thresholds: safe=%d caution=%d",
			cfg.SafeThreshold, cfg.CautionThreshold)
	}
}

func TestPresetConfigs(t *testing.T) {
	strict := NewStrictConfig()
	lenient := NewLenientConfig()
	if strict.SafeThreshold <= lenient.SafeThreshold {
		t.Error("strict preset should demand a higher safe threshold than lenient")
	}
	if strict.SafeThreshold-strict.CautionThreshold < 10 ||
		lenient.SafeThreshold-lenient.CautionThreshold < 10 {
		t.Error("presets must keep at least 10 points of threshold separation")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("PW_TEST_STR", "hello")
	t.Setenv("PW_TEST_INT", "42")
	t.Setenv("PW_TEST_BOOL", "true")
	t.Setenv("PW_TEST_BAD_INT", "nope")

	if GetEnv("PW_TEST_STR", "x") != "hello" {
		t.Error("GetEnv should return the set value")
	}
	if GetEnv("PW_TEST_UNSET", "fallback") != "fallback" {
		t.Error("GetEnv should return the default for unset keys")
	}
	if GetEnvInt("PW_TEST_INT", 0) != 42 {
		t.Error("GetEnvInt should parse the set value")
	}
	if GetEnvInt("PW_TEST_BAD_INT", 7) != 7 {
		t.Error("GetEnvInt should fall back on parse failure")
	}
	if !GetEnvBool("PW_TEST_BOOL", false) {
		t.Error("GetEnvBool should parse the set value")
	}
}
