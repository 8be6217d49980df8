// Package migrations embute os arquivos SQL do goose no binário de migração.
package migrations

import "embed"

// FS contém as migrações e os seeds, em ordem de versão.
//
//go:embed *.sql
var FS embed.FS
