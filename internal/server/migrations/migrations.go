// Package migrations embeds the SQL schema migrations applied with goose.
//
// The metadata relations (users, nodes) and the share relation live in
// separate directories so they can be applied to different databases, each
// tracked by its own goose version table.
package migrations

import "embed"

//go:embed meta/*.sql shares/*.sql
var Migrations embed.FS

const (
	MetaDir   = "meta"
	SharesDir = "shares"

	MetaVersionTable   = "goose_db_version"
	SharesVersionTable = "goose_shares_version"
)
