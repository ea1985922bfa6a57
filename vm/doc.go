// Package vm implements the dunder object model.
//
// This package contains:
//   - Class records with C3 method resolution order and instance layouts
//   - Descriptor-aware attribute lookup for classes and instances
//   - Per-class operator slot tables kept in sync with the class namespace
//   - The new-then-init object construction protocol
//
// User-level code is represented by Go closures wrapped in *Function values.
// Every value has a class (see Runtime.TypeOf) and every operator is
// dispatched through that class's slot table.
package vm
