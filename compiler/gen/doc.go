// Package gen generates a static metamodel from a model: constants naming
// the attributes, tables and columns of each managed type, and the named
// entity graph declarations of the model.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Model files (yaml, json, toml)
//	        ↓
//	   compiler/load.Document
//	        ↓
//	   metamodel.Model
//	        ↓
//	   Graph (types prepared for generation)
//	        ↓
//	   JenniferGenerator + TemplateWriter
//	        ↓
//	   Generated code
//
// # Output
//
// For a model with an Employee entity the generated tree looks like:
//
//	model/
//	├── graphs.go          Graphs and Register (FeatureGraphs)
//	└── employee/
//	    └── employee.go    Label, AttrName, Table, NameColumn, ...
//
// Generated identifiers are derived from the model names with acronyms
// kept upper case, so "deptId" becomes AttrDeptID.
//
// # Usage
//
//	cfg, err := gen.NewConfig(
//		gen.WithTarget("./model"),
//		gen.WithPackage("example.com/app/model"),
//		gen.WithFeatures(gen.FeatureAttributeLists),
//	)
//	if err != nil {
//		return err
//	}
//	return gen.Generate(ctx, m, cfg)
package gen
