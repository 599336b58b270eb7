package lookup

import (
	"context"
	"strings"
)

// StaticCWETable is a CWEProvider backed by an in-memory map, keyed by CWE id
// (e.g. "CWE-79"). Used by the service wiring and by tests.
type StaticCWETable struct {
	Entries map[string]CWEInfo
}

// LookupCWE resolves a CWE id against the table.
func (t *StaticCWETable) LookupCWE(_ context.Context, id string) (CWEInfo, error) {
	if info, ok := t.Entries[normalizeCWEID(id)]; ok {
		return info, nil
	}
	return CWEInfo{}, ErrNotFound
}

// normalizeCWEID accepts both "79" and "CWE-79" spellings.
func normalizeCWEID(id string) string {
	if strings.HasPrefix(id, "CWE-") {
		return id
	}
	return "CWE-" + id
}

// StaticOwaspTable is an OwaspProvider preloaded with the OWASP Top 10 2021
// categories, keyed by numeric id ("1".."10").
type StaticOwaspTable struct {
	Entries map[string]OwaspInfo
}

// NewOwaspTop10Table returns the 2021 OWASP Top 10 category table.
func NewOwaspTop10Table() *StaticOwaspTable {
	return &StaticOwaspTable{Entries: map[string]OwaspInfo{
		"1":  {ID: "1", Name: "A01:2021 - Broken Access Control"},
		"2":  {ID: "2", Name: "A02:2021 - Cryptographic Failures"},
		"3":  {ID: "3", Name: "A03:2021 - Injection"},
		"4":  {ID: "4", Name: "A04:2021 - Insecure Design"},
		"5":  {ID: "5", Name: "A05:2021 - Security Misconfiguration"},
		"6":  {ID: "6", Name: "A06:2021 - Vulnerable and Outdated Components"},
		"7":  {ID: "7", Name: "A07:2021 - Identification and Authentication Failures"},
		"8":  {ID: "8", Name: "A08:2021 - Software and Data Integrity Failures"},
		"9":  {ID: "9", Name: "A09:2021 - Security Logging and Monitoring Failures"},
		"10": {ID: "10", Name: "A10:2021 - Server-Side Request Forgery"},
	}}
}

// LookupOwaspTop10 resolves a numeric OWASP category id against the table.
func (t *StaticOwaspTable) LookupOwaspTop10(_ context.Context, id string) (OwaspInfo, error) {
	if info, ok := t.Entries[id]; ok {
		return info, nil
	}
	return OwaspInfo{}, ErrNotFound
}

// StaticPackageTable is a PackageProvider backed by an in-memory map.
type StaticPackageTable struct {
	Entries map[string]PackageMetadata
}

// LookupPackageMetadata resolves a package name against the table.
func (t *StaticPackageTable) LookupPackageMetadata(_ context.Context, name string) (PackageMetadata, error) {
	if meta, ok := t.Entries[name]; ok {
		return meta, nil
	}
	return PackageMetadata{}, ErrNotFound
}
