package migrations

import "embed"

// FS embeds all SQL migration files into the binary so the server and
// stations can run without a migrations directory on disk.
//
//go:embed *.sql
var FS embed.FS
