// Package migrations embebe el esquema SQL de los colaboradores Postgres.
package migrations

import "embed"

// FS contiene las migraciones, formato {version}_{name}.sql.
//
//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS donde viven las migraciones.
const Dir = "."
