package finding

import (
	"errors"
	"testing"
)

func TestResolveState(t *testing.T) {
	tests := []struct {
		name   string
		state  string
		reason string
		want   State
	}{
		{"open without reason", "open", "", StateNew},
		{"fixed without reason", "fixed", "", StateResolved},
		{"fixed false positive", "fixed", "false positive", StateClosed},
		{"fixed won't fix", "fixed", "won't fix", StateOpen},
		{"fixed used in tests", "fixed", "used in tests", StateClosed},
		{"closed without reason", "closed", "", StateClosed},
		{"dismissed without reason", "dismissed", "", StateClosed},
		{"dismissed false positive", "dismissed", "false positive", StateClosed},
		{"dismissed won't fix", "dismissed", "won't fix", StateOpen},
		{"dismissed used in tests", "dismissed", "used in tests", StateClosed},
		{"dismissed fix started", "dismissed", "fix_started", StateOpen},
		{"dismissed inaccurate", "dismissed", "inaccurate", StateClosed},
		{"dismissed not used", "dismissed", "not_used", StateClosed},
		{"dismissed no bandwidth", "dismissed", "no_bandwidth", StateOpen},
		{"dismissed tolerable risk", "dismissed", "tolerable_risk", StateClosed},
		{"resolved without reason", "resolved", "", StateResolved},
		{"resolved false positive", "resolved", "false_positive", StateClosed},
		{"resolved wont fix", "resolved", "wont_fix", StateOpen},
		{"resolved revoked", "resolved", "revoked", StateResolved},
		{"resolved used in tests", "resolved", "used_in_tests", StateClosed},
		{"resolved pattern edited", "resolved", "pattern_edited", StateClosed},
		{"uppercase state", "OPEN", "", StateNew},
		{"mixed case reason", "dismissed", "Tolerable_Risk", StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveState(KindDependency, tt.state, tt.reason)
			if err != nil {
				t.Fatalf("ResolveState(%q, %q) error = %v", tt.state, tt.reason, err)
			}
			if got != tt.want {
				t.Errorf("ResolveState(%q, %q) = %v, want %v", tt.state, tt.reason, got, tt.want)
			}
		})
	}
}

func TestResolveStateUnknown(t *testing.T) {
	tests := []struct {
		name   string
		state  string
		reason string
	}{
		{"unknown state", "auto_dismissed", ""},
		{"unknown reason", "dismissed", "because"},
		{"reason on reasonless state", "open", "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveState(KindSecret, tt.state, tt.reason)
			if err == nil {
				t.Fatalf("ResolveState(%q, %q) expected error", tt.state, tt.reason)
			}
			if !errors.Is(err, ErrUnknownResolution) {
				t.Errorf("ResolveState(%q, %q) error = %v, want ErrUnknownResolution", tt.state, tt.reason, err)
			}
		})
	}
}
