// Package finding defines the security finding aggregate and the resolution
// of external alert lifecycles into the internal state machine.
package finding

import (
	"strings"
	"time"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// ID is a type alias for finding ID.
type ID = shared.ID

// Kind discriminates the three finding specializations.
type Kind string

const (
	KindDependency Kind = "dependency"
	KindCode       Kind = "code"
	KindSecret     Kind = "secret"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindDependency, KindCode, KindSecret:
		return true
	default:
		return false
	}
}

// Severity is the 5-level ordinal severity scale.
type Severity int

const (
	SeverityInformative Severity = 1
	SeverityLow         Severity = 2
	SeverityMedium      Severity = 3
	SeverityHigh        Severity = 4
	SeverityCritical    Severity = 5
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInformative:
		return "informative"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SeverityFromString maps an advisory severity string onto the scale,
// case-insensitively. Unrecognized values fall back to informative.
func SeverityFromString(s string) Severity {
	switch strings.ToLower(s) {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityInformative
	}
}

// State is a point in the finding workflow, not a status.
type State int

const (
	// StateNew is awaiting review: NEW -> OPEN/CLOSED.
	StateNew State = 1
	// StateOpen is reviewed and counted in scoring: OPEN -> CLOSED.
	StateOpen State = 2
	// StateClosed is terminal, nothing to do.
	StateClosed State = 3
	// StateResolved is mitigated and can be re-opened: RESOLVED -> NEW/OPEN.
	StateResolved State = 4
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Detail carries the kind-specific fields of a finding.
type Detail interface {
	Kind() Kind
}

// DependencyDetail holds dependency-alert specifics.
type DependencyDetail struct {
	DismissedReason  string
	DismissedComment string
	Identifiers      []string
}

// Kind returns KindDependency.
func (DependencyDetail) Kind() Kind { return KindDependency }

// CodeDetail holds code-scanning alert specifics.
type CodeDetail struct {
	DismissedReason  string
	DismissedComment string
}

// Kind returns KindCode.
func (CodeDetail) Kind() Kind { return KindCode }

// SecretDetail holds secret-scanning alert specifics.
type SecretDetail struct {
	SecretType             string
	Secret                 string
	Resolution             string
	PushProtectionBypassed bool
	PushProtectionComment  string
}

// Kind returns KindSecret.
func (SecretDetail) Kind() Kind { return KindSecret }

// Finding is one security issue tracked per repository. The natural key is
// (kind, repository, number): alert numbers are only unique within a
// repository.
type Finding struct {
	id            ID
	kind          Kind
	integrationID shared.ID
	repositoryID  shared.ID
	number        int

	title    string
	summary  string
	severity Severity
	state    State
	url      string

	firstSeen    time.Time
	lastSeenDate time.Time

	detail Detail
}

// NewDependencyFinding creates a dependency finding; the kind discriminant is
// stamped here, never inferred later.
func NewDependencyFinding(id ID, integrationID, repositoryID shared.ID, number int, detail DependencyDetail) *Finding {
	return newFinding(id, KindDependency, integrationID, repositoryID, number, detail)
}

// NewCodeFinding creates a code-scanning finding.
func NewCodeFinding(id ID, integrationID, repositoryID shared.ID, number int, detail CodeDetail) *Finding {
	return newFinding(id, KindCode, integrationID, repositoryID, number, detail)
}

// NewSecretFinding creates a secret-scanning finding. Severity is always
// high for leaked secrets.
func NewSecretFinding(id ID, integrationID, repositoryID shared.ID, number int, detail SecretDetail) *Finding {
	f := newFinding(id, KindSecret, integrationID, repositoryID, number, detail)
	f.severity = SeverityHigh
	return f
}

func newFinding(id ID, kind Kind, integrationID, repositoryID shared.ID, number int, detail Detail) *Finding {
	now := time.Now()
	return &Finding{
		id:            id,
		kind:          kind,
		integrationID: integrationID,
		repositoryID:  repositoryID,
		number:        number,
		severity:      SeverityInformative,
		state:         StateNew,
		firstSeen:     now,
		lastSeenDate:  now,
		detail:        detail,
	}
}

// Reconstruct creates a finding from stored data.
func Reconstruct(
	id ID,
	kind Kind,
	integrationID shared.ID,
	repositoryID shared.ID,
	number int,
	title string,
	summary string,
	severity Severity,
	state State,
	url string,
	firstSeen time.Time,
	lastSeenDate time.Time,
	detail Detail,
) *Finding {
	return &Finding{
		id:            id,
		kind:          kind,
		integrationID: integrationID,
		repositoryID:  repositoryID,
		number:        number,
		title:         title,
		summary:       summary,
		severity:      severity,
		state:         state,
		url:           url,
		firstSeen:     firstSeen,
		lastSeenDate:  lastSeenDate,
		detail:        detail,
	}
}

func (f *Finding) ID() ID                   { return f.id }
func (f *Finding) Kind() Kind               { return f.kind }
func (f *Finding) IntegrationID() shared.ID { return f.integrationID }
func (f *Finding) RepositoryID() shared.ID  { return f.repositoryID }
func (f *Finding) Number() int              { return f.number }
func (f *Finding) Title() string            { return f.title }
func (f *Finding) Summary() string          { return f.summary }
func (f *Finding) Severity() Severity       { return f.severity }
func (f *Finding) State() State             { return f.state }
func (f *Finding) URL() string              { return f.url }
func (f *Finding) FirstSeen() time.Time     { return f.firstSeen }
func (f *Finding) LastSeenDate() time.Time  { return f.lastSeenDate }
func (f *Finding) Detail() Detail           { return f.detail }

// Mutations applied by the mappers before upsert.

func (f *Finding) SetTitle(title string)          { f.title = title }
func (f *Finding) SetSummary(summary string)      { f.summary = summary }
func (f *Finding) SetSeverity(s Severity)         { f.severity = s }
func (f *Finding) SetState(s State)               { f.state = s }
func (f *Finding) SetURL(url string)              { f.url = url }
func (f *Finding) Observe(at time.Time)           { f.lastSeenDate = at }

// DependencyDetail returns the detail if this is a dependency finding.
func (f *Finding) DependencyDetail() (DependencyDetail, bool) {
	d, ok := f.detail.(DependencyDetail)
	return d, ok
}

// CodeDetail returns the detail if this is a code finding.
func (f *Finding) CodeDetail() (CodeDetail, bool) {
	d, ok := f.detail.(CodeDetail)
	return d, ok
}

// SecretDetail returns the detail if this is a secret finding.
func (f *Finding) SecretDetail() (SecretDetail, bool) {
	d, ok := f.detail.(SecretDetail)
	return d, ok
}
