// Package util provides small shared helpers for env handling, strings, and
// package URLs.
package util

import (
	"os"
	"regexp"
	"strings"

	"github.com/package-url/packageurl-go"
)

var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// IsCVEID checks if an advisory id follows the CVE naming scheme
func IsCVEID(id string) bool {
	return cveIDPattern.MatchString(id)
}

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// IsEmpty checks if a string is empty or contains only whitespace
func IsEmpty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// IsNotEmpty checks if a string is not empty
func IsNotEmpty(s string) bool {
	return !IsEmpty(s)
}

// Contains checks if a string slice contains an item
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// AppendUnique appends item to slice unless it is already present.
func AppendUnique(slice []string, item string) []string {
	if Contains(slice, item) {
		return slice
	}
	return append(slice, item)
}

// CleanPURL removes qualifiers (after ?) and subpath (after #) to create canonical PURL
func CleanPURL(purlStr string) (string, error) {
	parsed, err := packageurl.FromString(purlStr)
	if err != nil {
		return "", err
	}

	// Create new PURL without qualifiers and subpath
	cleaned := packageurl.PackageURL{
		Type:      parsed.Type,
		Namespace: parsed.Namespace,
		Name:      parsed.Name,
		Version:   parsed.Version,
		// Qualifiers and Subpath are intentionally omitted
	}

	return strings.ToLower(cleaned.ToString()), nil
}

// PackageNameFromPURL extracts the package name (with namespace when present)
// from a PURL string. Example: pkg:npm/@babel/core@7.0.0 -> @babel/core
func PackageNameFromPURL(purlStr string) (string, error) {
	parsed, err := packageurl.FromString(purlStr)
	if err != nil {
		return "", err
	}
	if parsed.Namespace != "" {
		return parsed.Namespace + "/" + parsed.Name, nil
	}
	return parsed.Name, nil
}
