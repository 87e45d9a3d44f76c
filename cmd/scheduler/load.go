package main

import (
	"fmt"
	"hash/fnv"
	"os"

	"github.com/jaredv/focus-scheduler/pkg/cache"
	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/expander"
	"github.com/jaredv/focus-scheduler/pkg/log"
	"github.com/jaredv/focus-scheduler/pkg/obs"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/jaredv/focus-scheduler/pkg/weaver"
)

// loadedCatalog bundles everything cmd/scheduler's subcommands build
// once from a single catalog file: the typed catalog, the materialized
// instance set, the woven precedence edges, and a version number
// derived from the file's own bytes so an unchanged file always hits
// the dependency-graph cache.
type loadedCatalog struct {
	catalog   *catalog.Catalog
	instances map[string]*schedtypes.TaskInstance
	edges     []schedtypes.PrecedenceEdge
	version   int
}

func loadCatalogFile(path string, store cache.Store) (*loadedCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	cat, err := catalog.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	logger := log.WithComponent("cli")
	for _, w := range cat.Warnings {
		logger.Warn().Err(w).Msg("catalog row warning")
	}
	obs.CatalogTasksTotal.Set(float64(len(cat.Tasks)))

	ex := expander.Expand(cat)
	for _, w := range ex.Warnings {
		logger.Warn().Err(w).Msg("expansion warning")
	}

	version := fileVersion(raw)
	edges, err := weaver.WeaveCached(store, version, cat, ex)
	if err != nil {
		return nil, fmt.Errorf("weave dependency graph: %w", err)
	}

	return &loadedCatalog{catalog: cat, instances: ex.Instances, edges: edges, version: version}, nil
}

// fileVersion derives a cache version from the catalog file's own
// contents, so editing the input always invalidates a prior run's
// cached dependency graph without needing an explicit bump flag.
func fileVersion(raw []byte) int {
	h := fnv.New32a()
	h.Write(raw)
	v := int(h.Sum32())
	if v == 0 {
		return 1
	}
	return v
}

func openStore(dataDir string) (cache.Store, error) {
	if dataDir == "" {
		return nil, nil
	}
	store, err := cache.NewBoltStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open cache at %s: %w", dataDir, err)
	}
	return store, nil
}
