// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"context"

	"github.com/AleutianAI/demeter/pyast"
)

// Provider is the external AST and inference collaborator the resolver
// consumes.
//
// Description:
//
//	pyast.Engine is the production implementation. Provider methods may
//	fail on malformed or partially-built trees; the resolver catches those
//	faults at the call site and converts them to Unresolved — they never
//	propagate past a resolution boundary.
type Provider interface {
	// Infer runs direct semantic inference; nil candidates mean Unknown.
	Infer(ctx context.Context, n pyast.Node) ([]string, error)

	// InferBroad runs the wider inference query used as the final
	// resolution strategy.
	InferBroad(ctx context.Context, n pyast.Node) ([]string, error)

	// Lookup resolves a bare name lexically to its defining statements.
	Lookup(scope pyast.Node, name string) ([]pyast.Node, error)

	// Ancestors returns a class's resolvable ancestor definitions in
	// method-resolution order.
	Ancestors(class pyast.Node) ([]pyast.Node, error)

	// FindClass locates a class definition by module and dotted class name.
	FindClass(module, name string) (pyast.Node, error)

	// BaseQNames returns a class's direct base names, including bases
	// that have no definition inside the analyzed project.
	BaseQNames(class pyast.Node) []string
}
