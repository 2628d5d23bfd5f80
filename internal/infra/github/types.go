package github

// Wire shapes of the GitHub REST and GraphQL responses the sync engine
// consumes. Only the consumed fields are declared.

// Team is one entry of GET /orgs/{org}/teams.
type Team struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	// MembersURL is a URI template; everything from the first "{" is
	// stripped before fetching.
	MembersURL string `json:"members_url"`
}

// Member is one entry of a team members listing.
type Member struct {
	Login string `json:"login"`
}

// Repo is one entry of GET /orgs/{org}/repos.
type Repo struct {
	Name     string `json:"name"`
	HTMLURL  string `json:"html_url"`
	Private  bool   `json:"private"`
	Fork     bool   `json:"fork"`
	Archived bool   `json:"archived"`
}

// AdvisoryIdentifier is one advisory identifier (CVE/GHSA).
type AdvisoryIdentifier struct {
	Value string `json:"value"`
}

// SecurityAdvisory is the advisory block of a dependabot alert.
type SecurityAdvisory struct {
	Description string               `json:"description"`
	Severity    string               `json:"severity"`
	Identifiers []AdvisoryIdentifier `json:"identifiers"`
}

// DependencyAlert is one entry of GET /repos/{org}/{repo}/dependabot/alerts.
type DependencyAlert struct {
	Number           int              `json:"number"`
	State            string           `json:"state"`
	DismissedReason  string           `json:"dismissed_reason"`
	DismissedComment string           `json:"dismissed_comment"`
	HTMLURL          string           `json:"html_url"`
	SecurityAdvisory SecurityAdvisory `json:"security_advisory"`
}

// CodeAlertRule is the rule block of a code-scanning alert.
type CodeAlertRule struct {
	Description           string `json:"description"`
	SecuritySeverityLevel string `json:"security_severity_level"`
}

// CodeAlertLocation is where the most recent instance was found.
type CodeAlertLocation struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// CodeAlertInstance is the most recent instance of a code-scanning alert.
type CodeAlertInstance struct {
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Location CodeAlertLocation `json:"location"`
}

// CodeAlert is one entry of GET /repos/{org}/{repo}/code-scanning/alerts.
type CodeAlert struct {
	Number             int               `json:"number"`
	State              string            `json:"state"`
	DismissedReason    string            `json:"dismissed_reason"`
	DismissedComment   string            `json:"dismissed_comment"`
	HTMLURL            string            `json:"html_url"`
	Rule               CodeAlertRule     `json:"rule"`
	MostRecentInstance CodeAlertInstance `json:"most_recent_instance"`
}

// SecretAlert is one entry of GET /repos/{org}/{repo}/secret-scanning/alerts.
type SecretAlert struct {
	Number                 int    `json:"number"`
	State                  string `json:"state"`
	Resolution             string `json:"resolution"`
	ResolutionComment      string `json:"resolution_comment"`
	HTMLURL                string `json:"html_url"`
	SecretType             string `json:"secret_type"`
	Secret                 string `json:"secret"`
	PushProtectionBypassed bool   `json:"push_protection_bypassed"`
}

// Contents is the response of GET /repos/{org}/{repo}/contents/{path}.
// Content is base64-encoded with embedded newlines.
type Contents struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// OrgMember is one organisation member from the GraphQL membership query.
type OrgMember struct {
	Login          string
	Name           string
	VerifiedEmails []string
}
