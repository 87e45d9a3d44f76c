package catalog

import (
	"strings"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// NormalizeRelationship maps the many spellings a TASK RELATIONSHIPS
// TABLE row may use for a relationship type onto the canonical
// RelationType enum. An empty or unrecognized string defaults to FS.
func NormalizeRelationship(raw string) schedtypes.RelationType {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")

	switch s {
	case "", "FS", "FINISH-START", "FINISH<=START", "F-S":
		return schedtypes.RelFS
	case "F=S", "FINISH=START":
		return schedtypes.RelFEQS
	case "FF", "FINISH-FINISH", "FINISH<=FINISH", "F-F":
		return schedtypes.RelFF
	case "SS", "START-START", "START<=START", "S-S":
		return schedtypes.RelSS
	case "S=S", "START=START":
		return schedtypes.RelSEQS
	case "SF", "START-FINISH", "START<=FINISH", "S-F":
		return schedtypes.RelSF
	default:
		return schedtypes.RelFS
	}
}
