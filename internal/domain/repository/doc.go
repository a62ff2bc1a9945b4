// Package repository define los contratos de los colaboradores externos del
// núcleo de autenticación: persistencia de usuarios y perfiles, settings y
// validez de personal access tokens.
//
// Las implementaciones viven en internal/store/memory y internal/store/pg.
package repository
