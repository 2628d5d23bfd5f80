package integration

import (
	"testing"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

func TestSetInstallation(t *testing.T) {
	i := NewIntegration(shared.NewID(), "acme", "acme-corp", "12345", "67890")

	i.SetInstallation("acme-eu", "54321", "98765")

	if i.Organisation() != "acme-eu" {
		t.Errorf("organisation = %q, want %q", i.Organisation(), "acme-eu")
	}
	if i.AppID() != "54321" {
		t.Errorf("app id = %q, want %q", i.AppID(), "54321")
	}
	if i.InstallationID() != "98765" {
		t.Errorf("installation id = %q, want %q", i.InstallationID(), "98765")
	}
}

func TestHasAction(t *testing.T) {
	i := NewIntegration(shared.NewID(), "acme", "acme-corp", "12345", "67890")
	i.SetActions([]Action{ActionUsers, ActionFindings})

	if !i.HasAction(ActionUsers) {
		t.Error("expected users action")
	}
	if i.HasAction(ActionRepositories) {
		t.Error("unexpected repositories action")
	}
}
