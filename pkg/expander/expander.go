// Package expander materializes the Catalog's product-agnostic rows
// into concrete TaskInstances: one production instance per (product,
// catalog task) pair inside the product's job range, one quality and
// one customer sidecar per inspection requirement whose primary task
// falls in range, and late-part/rework instances whose team, skill,
// and product are inherited by tracing forward to a reachable baseline
// instance. Grounded on
// original_source/src/scheduler/data_loader.py's _load_product_lines,
// _load_quality_inspections, _load_customer_inspections and
// _load_late_parts_and_rework (the find_baseline_task_for_dependency
// trace).
package expander

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

var teamNumberRe = regexp.MustCompile(`(\d+)`)

// Expansion is the full set of materialized instances plus the lookup
// indexes later packages (weaver, cpsolver, heuristic) need.
type Expansion struct {
	Instances map[string]*schedtypes.TaskInstance

	// InstanceByProductTask maps (product, catalogTaskID) to the
	// production instance id.
	InstanceByProductTask map[productTask]string

	// Links maps a primary instance id to its QI/CC sidecars.
	Links map[string]*schedtypes.InspectionLinks

	Warnings []error
}

type productTask struct {
	Product string
	TaskID  int
}

// Expand walks the catalog and returns the materialized instance set.
func Expand(cat *catalog.Catalog) *Expansion {
	ex := &Expansion{
		Instances:             map[string]*schedtypes.TaskInstance{},
		InstanceByProductTask: map[productTask]string{},
		Links:                 map[string]*schedtypes.InspectionLinks{},
	}

	products := sortedProductNames(cat)
	for _, product := range products {
		expandProduction(ex, cat, product)
	}
	for _, product := range products {
		expandQualityInspections(ex, cat, product)
		expandCustomerInspections(ex, cat, product)
	}
	expandLateParts(ex, cat)
	expandRework(ex, cat)

	return ex
}

func sortedProductNames(cat *catalog.Catalog) []string {
	names := make([]string, 0, len(cat.Products))
	for name := range cat.Products {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func productionInstanceID(product string, taskID int) string {
	return fmt.Sprintf("%s_%d", product, taskID)
}

func expandProduction(ex *Expansion, cat *catalog.Catalog, product string) {
	p := cat.Products[product]
	if p == nil {
		return
	}
	for taskID := p.StartTaskID; taskID <= p.EndTaskID; taskID++ {
		def, ok := cat.Tasks[taskID]
		if !ok {
			continue
		}
		id := productionInstanceID(product, taskID)
		ex.Instances[id] = &schedtypes.TaskInstance{
			ID:              id,
			Kind:            schedtypes.KindProduction,
			Product:         product,
			CatalogID:       taskID,
			DurationMinutes: def.DurationMinutes,
			Headcount:       def.Headcount,
			Resource:        schedtypes.ResourceKey{TeamBase: def.BaseTeam, Skill: def.Skill},
		}
		ex.InstanceByProductTask[productTask{product, taskID}] = id
	}
}

func linksFor(ex *Expansion, primaryID string) *schedtypes.InspectionLinks {
	l, ok := ex.Links[primaryID]
	if !ok {
		l = &schedtypes.InspectionLinks{}
		ex.Links[primaryID] = l
	}
	return l
}

func expandQualityInspections(ex *Expansion, cat *catalog.Catalog, product string) {
	p := cat.Products[product]
	if p == nil {
		return
	}
	for _, req := range cat.QualityInspectionReqs {
		if req.PrimaryTaskID < p.StartTaskID || req.PrimaryTaskID > p.EndTaskID {
			continue
		}
		primaryID, ok := ex.InstanceByProductTask[productTask{product, req.PrimaryTaskID}]
		if !ok {
			continue
		}
		primary := ex.Instances[primaryID]
		qualityTeam := mapMechanicToQualityTeam(primary.Resource.TeamBase, cat)

		id := fmt.Sprintf("%s_QI_%s", product, req.QualityTaskID)
		ex.Instances[id] = &schedtypes.TaskInstance{
			ID:              id,
			Kind:            schedtypes.KindQualityInspection,
			Product:         product,
			DurationMinutes: req.DurationMinutes,
			Headcount:       req.HeadcountNeeded,
			Resource:        schedtypes.ResourceKey{TeamBase: qualityTeam},
			PrimaryID:       primaryID,
		}
		linksFor(ex, primaryID).QualityID = id
	}
}

func expandCustomerInspections(ex *Expansion, cat *catalog.Catalog, product string) {
	p := cat.Products[product]
	if p == nil {
		return
	}
	for _, req := range cat.CustomerInspectionReqs {
		if req.PrimaryTaskID < p.StartTaskID || req.PrimaryTaskID > p.EndTaskID {
			continue
		}
		primaryID, ok := ex.InstanceByProductTask[productTask{product, req.PrimaryTaskID}]
		if !ok {
			continue
		}
		id := fmt.Sprintf("%s_%s", product, req.CustomerTaskID)
		ex.Instances[id] = &schedtypes.TaskInstance{
			ID:              id,
			Kind:            schedtypes.KindCustomerInspection,
			Product:         product,
			DurationMinutes: req.DurationMinutes,
			Headcount:       req.HeadcountNeeded,
			Resource:        schedtypes.ResourceKey{TeamBase: "Customer Team 1"},
			PrimaryID:       primaryID,
		}
		linksFor(ex, primaryID).CustomerID = id
	}
}

// mapMechanicToQualityTeam maps a mechanic base team to its 1:1
// numbered quality team counterpart, falling back to the mechanic
// team's own name if no matching quality team capacity row exists.
func mapMechanicToQualityTeam(mechanicTeam string, cat *catalog.Catalog) string {
	num := teamNumberRe.FindString(mechanicTeam)
	if num == "" {
		return mechanicTeam
	}
	candidate := fmt.Sprintf("Quality Team %s", num)
	if _, ok := cat.QualityCapacity[candidate]; ok {
		return candidate
	}
	return mechanicTeam
}

func expandLateParts(ex *Expansion, cat *catalog.Catalog) {
	for _, rel := range cat.LatePartRelationships {
		detail, ok := cat.LatePartTaskDetails[rel.First]
		if !ok {
			continue
		}
		if _, exists := ex.Instances[rel.First]; exists {
			continue
		}
		team, skill, product := traceBaseline(ex, cat, rel.Second, rel.ProductLine)
		if team == "" {
			team, skill = detail.Team, detail.Skill
		}
		onDock := rel.OnDockDate
		inst := &schedtypes.TaskInstance{
			ID:              rel.First,
			Kind:            schedtypes.KindLatePart,
			Product:         product,
			DurationMinutes: detail.DurationMinutes,
			Headcount:       detail.Headcount,
			Resource:        schedtypes.ResourceKey{TeamBase: team, Skill: skill},
			OnDock:          &onDock,
		}
		ex.Instances[rel.First] = inst
	}
}

func expandRework(ex *Expansion, cat *catalog.Catalog) {
	for _, rel := range cat.ReworkRelationships {
		detail, ok := cat.ReworkTaskDetails[rel.First]
		if !ok {
			continue
		}
		if _, exists := ex.Instances[rel.First]; exists {
			continue
		}
		team, skill, product := traceBaseline(ex, cat, rel.Second, rel.ProductLine)
		if team == "" {
			team, skill = detail.Team, detail.Skill
		}
		ex.Instances[rel.First] = &schedtypes.TaskInstance{
			ID:              rel.First,
			Kind:            schedtypes.KindRework,
			Product:         product,
			DurationMinutes: detail.DurationMinutes,
			Headcount:       detail.Headcount,
			Resource:        schedtypes.ResourceKey{TeamBase: team, Skill: skill},
		}

		if detail.NeedsQI {
			qiID := "QI_" + rel.First
			qualityTeam := mapMechanicToQualityTeam(team, cat)
			ex.Instances[qiID] = &schedtypes.TaskInstance{
				ID:              qiID,
				Kind:            schedtypes.KindQualityInspection,
				Product:         product,
				DurationMinutes: detail.QIDurationMin,
				Headcount:       detail.QIHeadcount,
				Resource:        schedtypes.ResourceKey{TeamBase: qualityTeam},
				PrimaryID:       rel.First,
			}
			linksFor(ex, rel.First).QualityID = qiID
		}
	}
}

// tracePending is one hop queued during traceBaseline's breadth-first
// search: a task id still to resolve, and the product it's known to
// belong to so far (empty until some constraint along the chain names
// one).
type tracePending struct {
	id      string
	product string
}

// traceBaseline resolves a late-part or rework row's Second column into
// a materialized production instance, inheriting its team, skill, and
// product. Second does not always name a baseline catalog task
// directly: it may name another late-part or rework task, whose own
// Second must be followed in turn. This breadth-first searches the
// union of both relationship tables until a baseline instance is
// reached, falling back to no match (caller uses the CSV-declared team)
// if the chain dead-ends. Mirrors find_baseline_task_for_dependency in
// original_source/src/scheduler/data_loader.py.
func traceBaseline(ex *Expansion, cat *catalog.Catalog, startID, product string) (team, skill, resolvedProduct string) {
	visited := map[string]bool{}
	queue := []tracePending{{id: startID, product: product}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		if catalogTaskID, err := strconv.Atoi(cur.id); err == nil {
			candidates := []string{cur.product}
			if cur.product == "" {
				candidates = sortedProductNames(cat)
			}
			for _, p := range candidates {
				instID, ok := ex.InstanceByProductTask[productTask{p, catalogTaskID}]
				if !ok {
					continue
				}
				inst := ex.Instances[instID]
				return inst.Resource.TeamBase, inst.Resource.Skill, p
			}
		}

		for _, rel := range cat.LatePartRelationships {
			if rel.First != cur.id {
				continue
			}
			next := cur.product
			if rel.ProductLine != "" {
				next = rel.ProductLine
			}
			queue = append(queue, tracePending{id: rel.Second, product: next})
		}
		for _, rel := range cat.ReworkRelationships {
			if rel.First != cur.id {
				continue
			}
			next := cur.product
			if rel.ProductLine != "" {
				next = rel.ProductLine
			}
			queue = append(queue, tracePending{id: rel.Second, product: next})
		}
	}
	return "", "", product
}
