package account

import "testing"

func TestTeamID(t *testing.T) {
	tests := []struct {
		name         string
		organisation string
		slug         string
		want         string
	}{
		{"simple", "acme", "platform", "@acme/platform"},
		{"mixed case organisation", "Acme-Corp", "platform", "@acme-corp/platform"},
		{"mixed case slug", "acme", "Platform-Team", "@acme/platform-team"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TeamID(tt.organisation, tt.slug); got != tt.want {
				t.Errorf("TeamID(%q, %q) = %q, want %q", tt.organisation, tt.slug, got, tt.want)
			}
		})
	}
}
