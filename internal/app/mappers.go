package app

import (
	"fmt"
	"time"

	"github.com/secinv/ghsync/internal/infra/github"
	"github.com/secinv/ghsync/pkg/domain/account"
	"github.com/secinv/ghsync/pkg/domain/finding"
	"github.com/secinv/ghsync/pkg/domain/gitrepo"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Mappers transform one external API record plus its ancestor context into
// an upsert payload keyed by the entity's natural key.

// mapUser maps a GraphQL organisation member. The verified email is the
// first of the organisation-verified domain emails, or empty.
func mapUser(m github.OrgMember, integrationID shared.ID) *account.User {
	email := ""
	if len(m.VerifiedEmails) > 0 {
		email = m.VerifiedEmails[0]
	}
	return account.NewUser(m.Login, m.Name, email, integrationID)
}

// mapTeam maps a REST team record onto the "@org/slug" natural key.
func mapTeam(organisation string, t github.Team, integrationID shared.ID) *account.Team {
	return account.NewTeam(account.TeamID(organisation, t.Slug), t.Name, t.Description, integrationID)
}

// mapRepository classifies and maps a REST repository record.
func mapRepository(r github.Repo, integrationID shared.ID) *gitrepo.Repository {
	repoType, active := gitrepo.Classify(r.Archived, r.Fork, r.Private)
	return gitrepo.NewRepository(shared.NewID(), integrationID, r.Name, r.HTMLURL, repoType, active)
}

// mapDependencyAlert maps a dependabot alert. Severity comes from the
// advisory severity string; identifiers are the advisory identifier values.
func mapDependencyAlert(a github.DependencyAlert, integrationID, repositoryID shared.ID, now time.Time) (*finding.Finding, error) {
	state, err := finding.ResolveState(finding.KindDependency, a.State, a.DismissedReason)
	if err != nil {
		return nil, err
	}

	identifiers := make([]string, 0, len(a.SecurityAdvisory.Identifiers))
	for _, id := range a.SecurityAdvisory.Identifiers {
		identifiers = append(identifiers, id.Value)
	}

	f := finding.NewDependencyFinding(shared.NewID(), integrationID, repositoryID, a.Number, finding.DependencyDetail{
		DismissedReason:  a.DismissedReason,
		DismissedComment: a.DismissedComment,
		Identifiers:      identifiers,
	})
	f.SetSummary(a.SecurityAdvisory.Description)
	f.SetSeverity(finding.SeverityFromString(a.SecurityAdvisory.Severity))
	f.SetState(state)
	f.SetURL(a.HTMLURL)
	f.Observe(now)
	return f, nil
}

// mapCodeAlert maps a code-scanning alert. The summary concatenates the
// rule description, the most recent instance message and the file location;
// severity comes from the rule's security severity level when present.
func mapCodeAlert(a github.CodeAlert, integrationID, repositoryID shared.ID, now time.Time) (*finding.Finding, error) {
	state, err := finding.ResolveState(finding.KindCode, a.State, a.DismissedReason)
	if err != nil {
		return nil, err
	}

	loc := a.MostRecentInstance.Location
	summary := fmt.Sprintf("%s. %s\n%s:%d-%d",
		a.Rule.Description, a.MostRecentInstance.Message.Text, loc.Path, loc.StartLine, loc.EndLine)

	f := finding.NewCodeFinding(shared.NewID(), integrationID, repositoryID, a.Number, finding.CodeDetail{
		DismissedReason:  a.DismissedReason,
		DismissedComment: a.DismissedComment,
	})
	f.SetSummary(summary)
	f.SetSeverity(finding.SeverityFromString(a.Rule.SecuritySeverityLevel))
	f.SetState(state)
	f.SetURL(a.HTMLURL)
	f.Observe(now)
	return f, nil
}

// mapSecretAlert maps a secret-scanning alert. Severity is always high.
func mapSecretAlert(a github.SecretAlert, integrationID, repositoryID shared.ID, now time.Time) (*finding.Finding, error) {
	state, err := finding.ResolveState(finding.KindSecret, a.State, a.Resolution)
	if err != nil {
		return nil, err
	}

	f := finding.NewSecretFinding(shared.NewID(), integrationID, repositoryID, a.Number, finding.SecretDetail{
		SecretType:             a.SecretType,
		Secret:                 a.Secret,
		Resolution:             a.Resolution,
		PushProtectionBypassed: a.PushProtectionBypassed,
		PushProtectionComment:  a.ResolutionComment,
	})
	f.SetSummary(fmt.Sprintf("%s secret found", a.SecretType))
	f.SetState(state)
	f.SetURL(a.HTMLURL)
	f.Observe(now)
	return f, nil
}
