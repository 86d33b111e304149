// Package core defines the shared language of the snipcheck system.
//
// This package contains:
//   - Domain entities (ExampleRecord, ExecutionResult, Summary)
//   - The error taxonomy (ExecError and its kinds)
//   - Run options shared by the parser, executor and reporter
//   - Service interfaces (HistoryStore)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
