// Package schemas embeds the JSON Schemas of fichas files.
package schemas

import _ "embed"

// JobSchemaJSON is the JSON Schema of fichas.yaml job files.
//
//go:embed job.schema.json
var JobSchemaJSON string
