// Package harness runs YAML scenarios against fresh stores and compares
// the outcome with golden files.
//
// # Scenario Format
//
//	name: people_basics
//	description: "Adds, reads and mutates People records"
//	schemas:                  # optional, relative to the scenario file
//	  - ../schemas/people.yaml
//	stores:                   # optional inline definitions
//	  - name: People
//	    fields:
//	      - { name: Name, type: string }
//	      - { name: Age, type: int, null: true }
//	steps:
//	  - op: add
//	    store: People
//	    record: { Name: Ann, Age: 31 }
//	    expect: { id: 0 }
//	  - op: set
//	    store: People
//	    id: 0
//	    field: Age
//	    value: 32
//	  - op: get
//	    store: People
//	    id: 0
//	    field: Age
//	    expect: { value: 32 }
//	  - op: load
//	    store: People
//	    lines: ['{"Name":"Bob"}', 'not json']
//	    expect: { count: 1, skipped: 1 }
//	assertions:
//	  - { type: count, store: People, count: 2 }
//	  - { type: field, store: People, id: 1, field: Age, is_null: true }
//
// # Steps
//
//   - add: Store.Add(record); traces the new id
//   - get: Store.Get(id), then the field if one is named; traces the value or record
//   - set: Ref.Set(field, value)
//   - new: Store.NewRecord(record); traces the detached record
//   - load: loads inline lines or a file through the bulk loader; traces
//     loaded and skipped counts
//
// A step whose expect names an error code passes only if the operation
// fails with that code.
//
// # Determinism
//
// Every run starts from an empty base, the loader's reclamation hook is a
// counter, and all output is canonical JSON, so the same scenario always
// produces byte-identical snapshots.
package harness
