package store

import "embed"

// Migrations holds the PostgreSQL schema migrations, applied with bootstrap.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
