package report

import "strings"

// CleanOSVDescription strips the boilerplate sections out of an OSV markdown
// description. The text is split at line-leading "#" header markers; the
// leading section is always kept, later sections only when they contain a
// fenced code block (advisories bury proof-of-concept snippets under headers
// like "Details" while "References" sections are pure link noise). Only
// trailing newlines are trimmed from the result, other whitespace is left as
// the advisory author wrote it.
func CleanOSVDescription(description string) string {
	sections := strings.Split(description, "\n#")

	kept := []string{sections[0]}
	for _, section := range sections[1:] {
		if strings.Contains(section, "```") {
			kept = append(kept, section)
		}
	}

	joined := strings.Join(kept, "\n")
	joined = strings.TrimPrefix(joined, "#")
	return strings.TrimRight(joined, "\n")
}
