package catalog

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

var teamNumberRe = regexp.MustCompile(`(\d+)`)

// Load parses raw into a fully-populated Catalog, following a fixed
// section load order: shifts, then team capacities and calendars,
// then the baseline task catalog, then product lines and instance
// ranges, then quality and customer inspection requirements, then
// late parts and rework, then holidays, finishing with a
// quality-team shift fix-up pass. Row-level problems are recorded as
// warnings on the returned Catalog rather than aborting the load,
// mirroring original_source/src/scheduler/data_loader.py.
func Load(raw []byte) (*Catalog, error) {
	content := decode(raw)
	sections := splitSections(content)

	c := New()

	loadShiftHours(c, sections)
	loadTeamCapacitiesAndCalendars(c, sections)
	loadCustomerTeams(c, sections)
	loadTaskDefinitions(c, sections)
	loadProductLines(c, sections)
	loadQualityInspections(c, sections)
	loadCustomerInspections(c, sections)
	loadLatePartsAndRework(c, sections)
	loadHolidays(c, sections)
	fixQualityTeamShifts(c)

	return c, nil
}

// decode strips a UTF-8 BOM and falls back to a latin-1 (byte-for-rune)
// decoding if the content is not valid UTF-8.
func decode(raw []byte) string {
	if !utf8.Valid(raw) {
		runes := make([]rune, len(raw))
		for i, b := range raw {
			runes[i] = rune(b)
		}
		raw = []byte(string(runes))
	}
	s := string(raw)
	return strings.TrimPrefix(s, "﻿")
}

func csvRows(section string) [][]string {
	r := csv.NewReader(strings.NewReader(section))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, _ := r.ReadAll()
	return rows
}

// header returns the column-name -> index map for the first row of a
// section, with whitespace trimmed from each name.
func header(rows [][]string) map[string]int {
	idx := map[string]int{}
	if len(rows) == 0 {
		return idx
	}
	for i, col := range rows[0] {
		idx[strings.TrimSpace(col)] = i
	}
	return idx
}

func field(row []string, idx map[string]int, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func loadShiftHours(c *Catalog, sections map[string]string) {
	section, ok := sections["SHIFT WORKING HOURS"]
	if !ok {
		for id, shift := range defaultShifts() {
			c.Shifts[id] = shift
		}
		return
	}
	for i, row := range csvRows(section) {
		if len(row) < 3 || row[0] == "Shift" {
			continue
		}
		id := schedtypes.ShiftID(strings.TrimSpace(row[0]))
		startMin, err := ParseClock(row[1])
		if err != nil {
			c.warn(schedtypes.NewParseError("SHIFT WORKING HOURS", i, string(id), err.Error()))
			continue
		}
		endMin, err := ParseClock(row[2])
		if err != nil {
			c.warn(schedtypes.NewParseError("SHIFT WORKING HOURS", i, string(id), err.Error()))
			continue
		}
		c.Shifts[id] = schedtypes.Shift{ID: id, StartMinute: startMin, EndMinute: endMin}
	}
}

func defaultShifts() map[schedtypes.ShiftID]schedtypes.Shift {
	return map[schedtypes.ShiftID]schedtypes.Shift{
		schedtypes.Shift1: {ID: schedtypes.Shift1, StartMinute: 6 * 60, EndMinute: 14*60 + 30},
		schedtypes.Shift2: {ID: schedtypes.Shift2, StartMinute: 14*60 + 30, EndMinute: 23 * 60},
		schedtypes.Shift3: {ID: schedtypes.Shift3, StartMinute: 23 * 60, EndMinute: 6*60 + 30},
	}
}

func loadTeamCapacitiesAndCalendars(c *Catalog, sections map[string]string) {
	if section, ok := sections["MECHANIC TEAM CAPACITY"]; ok {
		base := map[string]int{}
		for i, row := range csvRows(section) {
			if len(row) < 2 || row[0] == "Mechanic Team" {
				continue
			}
			team := strings.TrimSpace(row[0])
			cap, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil {
				c.warn(schedtypes.NewParseError("MECHANIC TEAM CAPACITY", i, team, err.Error()))
				continue
			}
			c.MechanicCapacity[team] = cap
			baseName, _ := splitSkill(team)
			base[baseName] += cap
		}
		for team, cap := range base {
			if _, exists := c.MechanicCapacity[team]; !exists {
				c.MechanicCapacity[team] = cap
			}
		}
	}

	if section, ok := sections["QUALITY TEAM CAPACITY"]; ok {
		for i, row := range csvRows(section) {
			if len(row) < 2 || row[0] == "Quality Team" {
				continue
			}
			team := strings.TrimSpace(row[0])
			cap, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil {
				c.warn(schedtypes.NewParseError("QUALITY TEAM CAPACITY", i, team, err.Error()))
				continue
			}
			c.QualityCapacity[team] = cap
		}
	}

	if section, ok := sections["MECHANIC TEAM WORKING CALENDARS"]; ok {
		for _, row := range csvRows(section) {
			if len(row) < 2 || row[0] == "Mechanic Team" {
				continue
			}
			team := strings.TrimSpace(row[0])
			addShift(c.MechanicShifts, team, strings.TrimSpace(row[1]))
		}
	}

	if section, ok := sections["QUALITY TEAM WORKING CALENDARS"]; ok {
		for _, row := range csvRows(section) {
			if len(row) < 2 || row[0] == "Quality Team" {
				continue
			}
			team := strings.TrimSpace(row[0])
			addShift(c.QualityShifts, team, strings.TrimSpace(row[1]))
		}
	}

	// Skill-specific mechanic teams inherit their base team's shifts.
	for team := range c.MechanicCapacity {
		base, skill := splitSkill(team)
		if skill == "" {
			continue
		}
		if _, ok := c.MechanicShifts[team]; ok {
			continue
		}
		if baseShifts, ok := c.MechanicShifts[base]; ok {
			c.MechanicShifts[team] = copyShiftSet(baseShifts)
		} else {
			addShift(c.MechanicShifts, team, string(schedtypes.Shift1))
		}
	}
}

func addShift(set map[string]map[schedtypes.ShiftID]bool, team, raw string) {
	if set[team] == nil {
		set[team] = map[schedtypes.ShiftID]bool{}
	}
	for _, part := range strings.Split(raw, ",") {
		id := normalizeShiftID(part)
		if id != "" {
			set[team][id] = true
		}
	}
}

func normalizeShiftID(raw string) schedtypes.ShiftID {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(s, "1"):
		return schedtypes.Shift1
	case strings.HasPrefix(s, "2"):
		return schedtypes.Shift2
	case strings.HasPrefix(s, "3"):
		return schedtypes.Shift3
	default:
		return schedtypes.ShiftID(s)
	}
}

func copyShiftSet(in map[schedtypes.ShiftID]bool) map[schedtypes.ShiftID]bool {
	out := make(map[schedtypes.ShiftID]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// fixQualityTeamShifts ensures every quality team has a shift set,
// inheriting from its numerically-matched mechanic team or falling
// back to a shift assigned by team-number parity, grounded on
// data_loader.py's "Ensure ALL quality teams have shifts" pass.
func fixQualityTeamShifts(c *Catalog) {
	for team := range c.QualityCapacity {
		if existing, ok := c.QualityShifts[team]; ok && len(existing) > 0 {
			continue
		}
		match := teamNumberRe.FindString(team)
		if match == "" {
			addShift(c.QualityShifts, team, string(schedtypes.Shift1))
			continue
		}
		mechanicBase := fmt.Sprintf("Mechanic Team %s", match)
		if baseShifts, ok := c.MechanicShifts[mechanicBase]; ok && len(baseShifts) > 0 {
			c.QualityShifts[team] = copyShiftSet(baseShifts)
			continue
		}
		num, _ := strconv.Atoi(match)
		switch num % 3 {
		case 1:
			addShift(c.QualityShifts, team, string(schedtypes.Shift1))
		case 2:
			addShift(c.QualityShifts, team, string(schedtypes.Shift2))
		default:
			addShift(c.QualityShifts, team, string(schedtypes.Shift3))
		}
	}
}

func loadCustomerTeams(c *Catalog, sections map[string]string) {
	if section, ok := sections["CUSTOMER TEAM CAPACITY"]; ok {
		base := map[string]int{}
		for i, row := range csvRows(section) {
			if len(row) < 2 || row[0] == "Customer Team" {
				continue
			}
			team := strings.TrimSpace(row[0])
			cap, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil {
				c.warn(schedtypes.NewParseError("CUSTOMER TEAM CAPACITY", i, team, err.Error()))
				continue
			}
			c.CustomerCapacity[team] = cap
			baseName, _ := splitSkill(team)
			base[baseName] += cap
		}
		for team, cap := range base {
			if _, exists := c.CustomerCapacity[team]; !exists {
				c.CustomerCapacity[team] = cap
			}
		}
	}

	if section, ok := sections["CUSTOMER TEAM WORKING CALENDARS"]; ok {
		for _, row := range csvRows(section) {
			if len(row) < 2 || row[0] == "Customer Team" {
				continue
			}
			team := strings.TrimSpace(row[0])
			addShift(c.CustomerShifts, team, strings.TrimSpace(row[1]))
		}
	}
}

func loadTaskDefinitions(c *Catalog, sections map[string]string) {
	if section, ok := sections["TASK RELATIONSHIPS TABLE"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			firstStr, _ := field(row, idx, "First")
			secondStr, _ := field(row, idx, "Second")
			first, err1 := strconv.Atoi(firstStr)
			second, err2 := strconv.Atoi(secondStr)
			if err1 != nil || err2 != nil {
				c.warn(schedtypes.NewParseError("TASK RELATIONSHIPS TABLE", i, firstStr, "non-numeric First/Second"))
				continue
			}
			relRaw, ok := field(row, idx, "Relationship Type")
			if !ok {
				relRaw, _ = field(row, idx, "Relationship")
			}
			c.TaskRelationships = append(c.TaskRelationships, TaskRelationship{
				First:        first,
				Second:       second,
				Relationship: NormalizeRelationship(relRaw),
			})
		}
	}

	if section, ok := sections["TASK DURATION AND RESOURCE TABLE"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			taskStr, _ := field(row, idx, "Task")
			taskID, err := strconv.Atoi(taskStr)
			if err != nil {
				c.warn(schedtypes.NewParseError("TASK DURATION AND RESOURCE TABLE", i, taskStr, "non-numeric Task"))
				continue
			}
			durStr, okDur := field(row, idx, "Duration (minutes)")
			team, okTeam := field(row, idx, "Resource Type")
			headStr, okHead := field(row, idx, "Mechanics Required")
			if !okDur || !okTeam || !okHead || durStr == "" || team == "" || headStr == "" {
				c.warn(schedtypes.NewParseError("TASK DURATION AND RESOURCE TABLE", i, taskStr, "incomplete task row"))
				continue
			}
			duration, err := strconv.Atoi(durStr)
			if err != nil {
				c.warn(schedtypes.NewParseError("TASK DURATION AND RESOURCE TABLE", i, taskStr, err.Error()))
				continue
			}
			headcount, err := strconv.Atoi(headStr)
			if err != nil {
				c.warn(schedtypes.NewParseError("TASK DURATION AND RESOURCE TABLE", i, taskStr, err.Error()))
				continue
			}
			skill, _ := field(row, idx, "Skill Code")
			c.Tasks[taskID] = &schedtypes.BaselineTaskDef{
				CatalogID:       taskID,
				DurationMinutes: duration,
				BaseTeam:        team,
				Skill:           skill,
				Headcount:       headcount,
			}
		}
	}

	for _, rel := range c.TaskRelationships {
		if succ, ok := c.Tasks[rel.Second]; ok {
			if _, ok := c.Tasks[rel.First]; ok {
				succ.Predecessors = append(succ.Predecessors, rel.First)
			}
		}
	}
}

func loadProductLines(c *Catalog, sections map[string]string) {
	if section, ok := sections["PRODUCT LINE DELIVERY SCHEDULE"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			name, _ := field(row, idx, "Product Line")
			dateStr, _ := field(row, idx, "Delivery Date")
			if name == "" {
				continue
			}
			delivery, err := parseDate(dateStr)
			if err != nil {
				c.warn(schedtypes.NewParseError("PRODUCT LINE DELIVERY SCHEDULE", i, name, err.Error()))
				continue
			}
			c.Products[name] = &schedtypes.ProductLine{
				ID:           name,
				DeliveryDate: delivery,
				Holidays:     map[string]bool{},
			}
		}
	}

	if section, ok := sections["PRODUCT LINE JOBS"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			name, _ := field(row, idx, "Product Line")
			startStr, _ := field(row, idx, "Task Start")
			endStr, _ := field(row, idx, "Task End")
			start, err1 := strconv.Atoi(startStr)
			end, err2 := strconv.Atoi(endStr)
			if name == "" || err1 != nil || err2 != nil {
				c.warn(schedtypes.NewParseError("PRODUCT LINE JOBS", i, name, "malformed task range"))
				continue
			}
			p, ok := c.Products[name]
			if !ok {
				p = &schedtypes.ProductLine{ID: name, Holidays: map[string]bool{}}
				c.Products[name] = p
			}
			p.StartTaskID = start
			p.EndTaskID = end
		}
	}
}

func loadQualityInspections(c *Catalog, sections map[string]string) {
	section, ok := sections["QUALITY INSPECTION REQUIREMENTS"]
	if !ok {
		return
	}
	rows := csvRows(section)
	idx := header(rows)
	for i, row := range dataRows(rows) {
		primaryStr, _ := field(row, idx, "Primary Task")
		qiTaskStr, _ := field(row, idx, "Quality Task")
		headStr, _ := field(row, idx, "Quality Headcount Required")
		durStr, _ := field(row, idx, "Quality Duration (minutes)")

		primary, err1 := strconv.Atoi(primaryStr)
		head, err2 := strconv.Atoi(headStr)
		dur, err3 := strconv.Atoi(durStr)
		if err1 != nil || err2 != nil || err3 != nil {
			c.warn(schedtypes.NewParseError("QUALITY INSPECTION REQUIREMENTS", i, primaryStr, "malformed quality inspection row"))
			continue
		}
		c.QualityInspectionReqs = append(c.QualityInspectionReqs, QualityInspectionReq{
			PrimaryTaskID:   primary,
			QualityTaskID:   qiTaskStr,
			HeadcountNeeded: head,
			DurationMinutes: dur,
		})
	}
}

func loadCustomerInspections(c *Catalog, sections map[string]string) {
	section, ok := sections["CUSTOMER INSPECTION REQUIREMENTS"]
	if !ok {
		return
	}
	for i, row := range csvRows(section) {
		if len(row) < 4 || row[0] == "Primary Task" {
			continue
		}
		primary, err1 := strconv.Atoi(strings.TrimSpace(row[0]))
		head, err2 := strconv.Atoi(strings.TrimSpace(row[2]))
		dur, err3 := strconv.Atoi(strings.TrimSpace(row[3]))
		if err1 != nil || err2 != nil || err3 != nil {
			c.warn(schedtypes.NewParseError("CUSTOMER INSPECTION REQUIREMENTS", i, row[0], "malformed customer inspection row"))
			continue
		}
		c.CustomerInspectionReqs = append(c.CustomerInspectionReqs, CustomerInspectionReq{
			PrimaryTaskID:   primary,
			CustomerTaskID:  strings.TrimSpace(row[1]),
			HeadcountNeeded: head,
			DurationMinutes: dur,
		})
	}
}

func loadLatePartsAndRework(c *Catalog, sections map[string]string) {
	if section, ok := sections["LATE PARTS RELATIONSHIPS TABLE"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			first, _ := field(row, idx, "First")
			secondStr, _ := field(row, idx, "Second")
			dockStr, _ := field(row, idx, "Estimated On Dock Date")
			product, _ := field(row, idx, "Product Line")
			relRaw, ok := field(row, idx, "Relationship Type")
			if !ok {
				relRaw, _ = field(row, idx, "Relationship")
			}

			second := strings.TrimSpace(secondStr)
			if second == "" || first == "" {
				c.warn(schedtypes.NewParseError("LATE PARTS RELATIONSHIPS TABLE", i, first, "malformed late part relationship row"))
				continue
			}
			onDock, err := parseDate(dockStr)
			if err != nil {
				c.warn(schedtypes.NewParseError("LATE PARTS RELATIONSHIPS TABLE", i, first, err.Error()))
				continue
			}
			c.LatePartRelationships = append(c.LatePartRelationships, LatePartRelationship{
				First:        first,
				Second:       second,
				OnDockDate:   onDock,
				ProductLine:  product,
				Relationship: NormalizeRelationship(relRaw),
			})
		}
	}

	if section, ok := sections["REWORK RELATIONSHIPS TABLE"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			first, _ := field(row, idx, "First")
			secondStr, _ := field(row, idx, "Second")
			product, _ := field(row, idx, "Product Line")
			relRaw, ok := field(row, idx, "Relationship Type")
			if !ok {
				relRaw, _ = field(row, idx, "Relationship")
			}
			second := strings.TrimSpace(secondStr)
			if second == "" || first == "" {
				c.warn(schedtypes.NewParseError("REWORK RELATIONSHIPS TABLE", i, first, "malformed rework relationship row"))
				continue
			}
			c.ReworkRelationships = append(c.ReworkRelationships, ReworkRelationship{
				First:        first,
				Second:       second,
				ProductLine:  product,
				Relationship: NormalizeRelationship(relRaw),
			})
		}
	}

	if section, ok := sections["LATE PARTS TASK DETAILS"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			taskID, _ := field(row, idx, "Task")
			durStr, okDur := field(row, idx, "Duration (minutes)")
			team, okTeam := field(row, idx, "Resource Type")
			headStr, okHead := field(row, idx, "Mechanics Required")
			if taskID == "" || !okDur || !okTeam || !okHead {
				c.warn(schedtypes.NewParseError("LATE PARTS TASK DETAILS", i, taskID, "incomplete late part task row"))
				continue
			}
			dur, err1 := strconv.Atoi(durStr)
			head, err2 := strconv.Atoi(headStr)
			if err1 != nil || err2 != nil {
				c.warn(schedtypes.NewParseError("LATE PARTS TASK DETAILS", i, taskID, "malformed numeric field"))
				continue
			}
			skill, _ := field(row, idx, "Skill Code")
			if skill == "" {
				skill = "Skill 1"
			}
			c.LatePartTaskDetails[taskID] = &LatePartTaskDetail{
				TaskID:          taskID,
				DurationMinutes: dur,
				Team:            team,
				Skill:           skill,
				Headcount:       head,
			}
		}
	}

	if section, ok := sections["REWORK TASK DETAILS"]; ok {
		rows := csvRows(section)
		idx := header(rows)
		for i, row := range dataRows(rows) {
			taskID, _ := field(row, idx, "Task")
			durStr, okDur := field(row, idx, "Duration (minutes)")
			team, okTeam := field(row, idx, "Resource Type")
			headStr, okHead := field(row, idx, "Mechanics Required")
			if taskID == "" || !okDur || !okTeam || !okHead {
				c.warn(schedtypes.NewParseError("REWORK TASK DETAILS", i, taskID, "incomplete rework task row"))
				continue
			}
			dur, err1 := strconv.Atoi(durStr)
			head, err2 := strconv.Atoi(headStr)
			if err1 != nil || err2 != nil {
				c.warn(schedtypes.NewParseError("REWORK TASK DETAILS", i, taskID, "malformed numeric field"))
				continue
			}
			needsQI := false
			qiDur, qiHead := 0, 0
			if v, ok := field(row, idx, "Needs QI"); ok {
				needsQI = strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
			}
			if v, ok := field(row, idx, "QI Duration (minutes)"); ok && v != "" {
				qiDur, _ = strconv.Atoi(v)
			}
			if v, ok := field(row, idx, "QI Headcount"); ok && v != "" {
				qiHead, _ = strconv.Atoi(v)
			}
			skill, _ := field(row, idx, "Skill Code")
			if skill == "" {
				skill = "Skill 1"
			}
			c.ReworkTaskDetails[taskID] = &ReworkTaskDetail{
				TaskID:          taskID,
				DurationMinutes: dur,
				Team:            team,
				Skill:           skill,
				Headcount:       head,
				NeedsQI:         needsQI,
				QIDurationMin:   qiDur,
				QIHeadcount:     qiHead,
			}
		}
	}
}

func loadHolidays(c *Catalog, sections map[string]string) {
	section, ok := sections["PRODUCT LINE HOLIDAY CALENDAR"]
	if !ok {
		return
	}
	rows := csvRows(section)
	idx := header(rows)
	for i, row := range dataRows(rows) {
		product, _ := field(row, idx, "Product Line")
		dateStr, _ := field(row, idx, "Date")
		if product == "" {
			continue
		}
		date, err := parseDate(dateStr)
		if err != nil {
			c.warn(schedtypes.NewParseError("PRODUCT LINE HOLIDAY CALENDAR", i, product, err.Error()))
			continue
		}
		if c.Holidays[product] == nil {
			c.Holidays[product] = map[string]bool{}
		}
		key := date.Format("2006-01-02")
		c.Holidays[product][key] = true
		if p, ok := c.Products[product]; ok {
			p.Holidays[key] = true
		}
	}
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "2006/01/02"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
