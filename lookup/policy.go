package lookup

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// PolicyFileProvider resolves blacklist policies from YAML files laid out as
// <dir>/<orgID>/<policyID>.yaml, each file holding a PolicyContent document:
//
//	name: No known-exploited advisories
//	content:
//	  - CVE-2021-44228
//	  - GHSA-jfh8-c2jp-5v3q
type PolicyFileProvider struct {
	Dir string
}

// LookupPolicyContent reads and parses one policy file.
func (p *PolicyFileProvider) LookupPolicyContent(_ context.Context, orgID string, policyID string) (PolicyContent, error) {
	path := filepath.Join(p.Dir, orgID, policyID+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return PolicyContent{}, ErrNotFound
		}
		return PolicyContent{}, err
	}

	var content PolicyContent
	if err := yaml.Unmarshal(raw, &content); err != nil {
		return PolicyContent{}, err
	}
	return content, nil
}
