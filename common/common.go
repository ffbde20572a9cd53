// Package common holds process-wide helpers shared by the binaries.
package common

var (
	// PackageName is used as the service name when none is configured.
	PackageName = "bonding-factory-backend"

	// Version is set at build time with -ldflags "-X .../common.Version=...".
	Version = "dev"
)
