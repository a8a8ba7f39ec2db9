// Package steps defines review steps and the registry that catalogs them.
//
// A Step is a stateless check over file content. Step types are registered
// in an explicit Registry built once at startup from the Builtins table plus
// any YAML pattern definitions found in the configured patterns directory.
// Resolve validates per-step configuration against the step's JSON Schema
// before calling its factory.
package steps
