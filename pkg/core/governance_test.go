//go:build governance

package core_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/leapstack-labs/snipcheck"

// =============================================================================
// COHESION TEST - Core types must be shared by multiple packages
// =============================================================================

// TestGovernance_CoreCohesion verifies that types in pkg/core are genuinely
// shared across multiple packages. Single-use types should be moved to their
// sole consumer to maintain cohesion.
func TestGovernance_CoreCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	coreDefs := make(map[types.Object]string)
	var corePkg *packages.Package

	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" {
			corePkg = p
			scope := p.Types.Scope()
			for _, name := range scope.Names() {
				obj := scope.Lookup(name)
				if obj.Exported() {
					coreDefs[obj] = name
				}
			}
			break
		}
	}

	if corePkg == nil {
		t.Fatal("Could not find pkg/core")
	}

	usageMap := make(map[string]map[string]bool)
	for _, name := range coreDefs {
		usageMap[name] = make(map[string]bool)
	}

	base := modulePath + "/"

	for _, p := range pkgs {
		if p.PkgPath == corePkg.PkgPath || strings.HasSuffix(p.PkgPath, "_test") {
			continue
		}
		if p.TypesInfo == nil {
			continue
		}

		for _, info := range p.TypesInfo.Uses {
			if name, exists := coreDefs[info]; exists {
				importer := strings.TrimPrefix(p.PkgPath, base)
				usageMap[name][importer] = true
			}
		}
	}

	for typeName, importers := range usageMap {
		if isCohesionAllowlisted(typeName) {
			continue
		}

		if len(importers) == 0 {
			t.Logf("WARNING: Unused Core Type: %s (consider deleting)", typeName)
		} else if len(importers) == 1 {
			var user string
			for k := range importers {
				user = k
			}
			t.Errorf("COHESION VIOLATION: 'core.%s' is used ONLY by '%s'.\n"+
				"   Fix: Move type from pkg/core to %s.",
				typeName, user, user)
		}
	}
}

// isCohesionAllowlisted returns true for names allowed to have single usage.
func isCohesionAllowlisted(name string) bool {
	allowlist := map[string]bool{
		"HistoryStore":     true, // Interface - implementation lives in internal/state
		"RecordID":         true, // Constructor used by the parser
		"ParseLanguage":    true, // Fence info-string mapping used by the parser
		"NewExecError":     true,
		"DefaultMarker":    true,
		"DefaultTimeoutMs": true,
	}
	return allowlist[name]
}

// =============================================================================
// LAYERING TEST - The core pipeline stays acyclic and outer tooling stays out
// =============================================================================

// TestGovernance_PipelineLayering ensures the parser, executor and comparator
// do not depend on each other or on the CLI layer.
func TestGovernance_PipelineLayering(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, modulePath+"/internal/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	forbidden := map[string][]string{
		modulePath + "/internal/corpus":  {"/internal/sandbox", "/internal/report", "/internal/engine", "/internal/cli"},
		modulePath + "/internal/sandbox": {"/internal/corpus", "/internal/report", "/internal/engine", "/internal/cli"},
		modulePath + "/internal/report":  {"/internal/corpus", "/internal/sandbox", "/internal/engine", "/internal/cli"},
		modulePath + "/internal/engine":  {"/internal/cli"},
	}

	for _, p := range pkgs {
		rules, ok := forbidden[p.PkgPath]
		if !ok {
			continue
		}
		for imp := range p.Imports {
			for _, suffix := range rules {
				if strings.HasPrefix(imp, modulePath+suffix) {
					t.Errorf("LAYERING VIOLATION: '%s' imports '%s'",
						strings.TrimPrefix(p.PkgPath, modulePath+"/"), strings.TrimPrefix(imp, modulePath+"/"))
				}
			}
		}
	}
}
