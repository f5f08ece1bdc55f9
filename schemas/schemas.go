// Package schemas holds the embedded JSON Schemas for persisted artifacts.
package schemas

import _ "embed"

// InstanceSchemaJSON validates evaluation instance files before a run.
//
//go:embed instance.schema.json
var InstanceSchemaJSON string
