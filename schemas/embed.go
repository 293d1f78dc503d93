// Package schemas holds the JSON Schemas for the dataset and profiles files.
package schemas

import "embed"

// Schema file names.
const (
	Dataset  = "dataset.schema.json"
	Profiles = "profiles.schema.json"
)

// FS contains every *.schema.json file of this directory.
//
//go:embed *.schema.json
var FS embed.FS
