// Package weaver builds the dynamic dependency graph: every catalog
// edge (baseline, late-part, or rework) is rewritten into a chain that
// threads through the predecessor's quality and customer inspection
// sidecars before reaching the successor, and terminal tasks (never a
// predecessor of anything) still get their own inspection chain
// linked to nothing. Grounded on
// original_source/src/scheduler/constraints.py's
// build_dynamic_dependencies and add_chained_dependency.
package weaver

import (
	"fmt"
	"sort"

	"github.com/jaredv/focus-scheduler/pkg/cache"
	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/expander"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// rawEdge is a catalog-level edge prior to per-product instantiation.
type rawEdge struct {
	First        string
	Second       string
	Relationship schedtypes.RelationType
	Product      string // "" means apply to every product
}

// Weave produces the full set of PrecedenceEdges for one catalog
// version, threading every edge through QI/CC sidecars and linking
// terminal inspected tasks that have no downstream successor.
func Weave(cat *catalog.Catalog, ex *expander.Expansion) []schedtypes.PrecedenceEdge {
	edges := make([]schedtypes.PrecedenceEdge, 0, len(cat.TaskRelationships)*2)
	processedPredecessors := map[string]bool{}

	for _, raw := range collectRawEdges(cat) {
		products := productScope(cat, raw.Product)
		for _, product := range products {
			predID := instanceID(ex, raw.First, product)
			succID := instanceID(ex, raw.Second, product)
			if predID == "" || succID == "" {
				continue
			}
			processedPredecessors[predID] = true
			current := predID
			if qi := ex.Links[predID]; qi != nil && qi.QualityID != "" {
				edges = append(edges, schedtypes.PrecedenceEdge{Predecessor: current, Successor: qi.QualityID, Relation: schedtypes.RelFS})
				current = qi.QualityID
			}
			if cc := ex.Links[predID]; cc != nil && cc.CustomerID != "" {
				edges = append(edges, schedtypes.PrecedenceEdge{Predecessor: current, Successor: cc.CustomerID, Relation: schedtypes.RelFS})
				current = cc.CustomerID
			}
			edges = append(edges, schedtypes.PrecedenceEdge{Predecessor: current, Successor: succID, Relation: raw.Relationship})
		}
	}

	edges = append(edges, terminalInspectionChains(ex, processedPredecessors)...)

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Predecessor != edges[j].Predecessor {
			return edges[i].Predecessor < edges[j].Predecessor
		}
		return edges[i].Successor < edges[j].Successor
	})
	return edges
}

// collectRawEdges merges baseline, late-part, and rework relationship
// tables into one unified edge list for uniform processing.
func collectRawEdges(cat *catalog.Catalog) []rawEdge {
	var all []rawEdge
	for _, r := range cat.TaskRelationships {
		all = append(all, rawEdge{First: fmt.Sprint(r.First), Second: fmt.Sprint(r.Second), Relationship: r.Relationship})
	}
	for _, r := range cat.LatePartRelationships {
		all = append(all, rawEdge{First: r.First, Second: r.Second, Relationship: r.Relationship, Product: r.ProductLine})
	}
	for _, r := range cat.ReworkRelationships {
		all = append(all, rawEdge{First: r.First, Second: r.Second, Relationship: r.Relationship, Product: r.ProductLine})
	}
	return all
}

func productScope(cat *catalog.Catalog, explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	names := make([]string, 0, len(cat.Products))
	for name := range cat.Products {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// instanceID resolves a catalog-level task reference (numeric baseline
// id or a late-part/rework string id) to the materialized instance id
// for a given product.
func instanceID(ex *expander.Expansion, rawID, product string) string {
	var catalogID int
	if _, err := fmt.Sscanf(rawID, "%d", &catalogID); err == nil && fmt.Sprint(catalogID) == rawID {
		id := fmt.Sprintf("%s_%d", product, catalogID)
		if _, ok := ex.Instances[id]; ok {
			return id
		}
		return ""
	}
	if _, ok := ex.Instances[rawID]; ok {
		return rawID
	}
	return ""
}

// terminalInspectionChains links the QI/CC sidecars of any primary
// task that was never a predecessor in the main pass, so its
// inspection chain still appears in the graph even though nothing
// depends on it downstream.
func terminalInspectionChains(ex *expander.Expansion, processed map[string]bool) []schedtypes.PrecedenceEdge {
	var edges []schedtypes.PrecedenceEdge
	primaries := make([]string, 0, len(ex.Links))
	for id := range ex.Links {
		primaries = append(primaries, id)
	}
	sort.Strings(primaries)

	for _, primary := range primaries {
		if processed[primary] {
			continue
		}
		links := ex.Links[primary]
		current := primary
		if links.QualityID != "" {
			edges = append(edges, schedtypes.PrecedenceEdge{Predecessor: current, Successor: links.QualityID, Relation: schedtypes.RelFS})
			current = links.QualityID
		}
		if links.CustomerID != "" {
			edges = append(edges, schedtypes.PrecedenceEdge{Predecessor: current, Successor: links.CustomerID, Relation: schedtypes.RelFS})
		}
	}
	return edges
}

// WeaveCached wraps Weave with the version-tagged cache so repeated
// scenario runs against an unchanged catalog skip re-weaving the
// graph.
func WeaveCached(store cache.Store, version int, cat *catalog.Catalog, ex *expander.Expansion) ([]schedtypes.PrecedenceEdge, error) {
	if store != nil {
		if edges, ok, err := store.GetGraph(version); err != nil {
			return nil, err
		} else if ok {
			return edges, nil
		}
	}
	edges := Weave(cat, ex)
	if store != nil {
		if err := store.PutGraph(version, edges); err != nil {
			return nil, err
		}
	}
	return edges, nil
}
