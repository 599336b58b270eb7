// Package lookup defines the narrow external lookup interfaces the
// aggregation engine consumes (CWE, OWASP Top 10, EPSS, package metadata,
// blacklist policies) together with the concrete providers the service wires
// in. All lookups are point queries; callers degrade gracefully when one
// fails.
package lookup

import (
	"context"
	"errors"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

// ErrNotFound is returned by lookups whose subject does not exist. It is the
// only error callers are expected to branch on.
var ErrNotFound = errors.New("lookup: not found")

// CWEInfo is the resolved description of one CWE id.
type CWEInfo struct {
	Name                string                    `json:"name"`
	Description         string                    `json:"description"`
	ExtendedDescription string                    `json:"extended_description,omitempty"`
	CommonConsequences  []model.CommonConsequence `json:"common_consequences,omitempty"`
}

// OwaspInfo is the resolved name of one OWASP Top 10 category id.
type OwaspInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PackageMetadata is the knowledge-base record of one package.
type PackageMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// PolicyContent is one resolved blacklist policy: its display name and the
// advisory ids it blacklists.
type PolicyContent struct {
	Name    string   `json:"name" yaml:"name"`
	Content []string `json:"content" yaml:"content"`
}

// CWEProvider resolves CWE ids.
type CWEProvider interface {
	LookupCWE(ctx context.Context, id string) (CWEInfo, error)
}

// OwaspProvider resolves OWASP Top 10 category ids.
type OwaspProvider interface {
	LookupOwaspTop10(ctx context.Context, id string) (OwaspInfo, error)
}

// EPSSProvider resolves advisory ids to EPSS scores. Lookups always yield a
// value: unknown advisories return a zeroed score, never an error.
type EPSSProvider interface {
	LookupEPSS(ctx context.Context, advisoryID string) model.EPSSScore
}

// PackageProvider resolves package names to their knowledge-base metadata.
type PackageProvider interface {
	LookupPackageMetadata(ctx context.Context, name string) (PackageMetadata, error)
}

// PolicyProvider resolves a blacklist policy configured for an organization.
type PolicyProvider interface {
	LookupPolicyContent(ctx context.Context, orgID string, policyID string) (PolicyContent, error)
}

// Providers bundles the lookups the engine needs, so callers pass one value
// around instead of five.
type Providers struct {
	CWE     CWEProvider
	Owasp   OwaspProvider
	EPSS    EPSSProvider
	Package PackageProvider
	Policy  PolicyProvider
}
