package inventory

import "embed"

// Schema migrations are compiled into the binary so deployments need no
// external SQL files.
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS
