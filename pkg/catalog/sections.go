package catalog

import "strings"

// splitSections splits a document into named sections delimited by
// "==== SECTION NAME ====" marker lines, grounded on
// original_source/src/scheduler/data_loader.py's parse_csv_sections.
// Blank lines within a section are dropped, matching the reference
// loader's behavior of only appending non-empty lines.
func splitSections(content string) map[string]string {
	sections := map[string]string{}

	if strings.HasPrefix(content, "﻿") {
		content = strings.TrimPrefix(content, "﻿")
	}

	var currentName string
	var currentLines []string

	flush := func() {
		if currentName != "" && len(currentLines) > 0 {
			sections[currentName] = strings.Join(currentLines, "\n")
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "====") && strings.Contains(trimmed, "====") {
			flush()
			currentName = strings.TrimSpace(strings.ReplaceAll(trimmed, "=", ""))
			currentLines = nil
			continue
		}
		if trimmed != "" {
			currentLines = append(currentLines, line)
		}
	}
	flush()

	return sections
}

// splitSkill splits a team label like "Mechanic Team 3 (Skill 2)" into
// its base team ("Mechanic Team 3") and skill code ("Skill 2"). Labels
// without a parenthesized skill return an empty skill string.
func splitSkill(label string) (base, skill string) {
	label = strings.TrimSpace(label)
	idx := strings.Index(label, " (")
	if idx < 0 || !strings.HasSuffix(label, ")") {
		return label, ""
	}
	base = strings.TrimSpace(label[:idx])
	skill = strings.TrimSpace(strings.TrimSuffix(label[idx+2:], ")"))
	return base, skill
}
