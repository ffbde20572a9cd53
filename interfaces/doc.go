// Package interfaces defines the core types and collaborator interfaces of the
// bonding factory, separating interface definitions from implementations.
//
// # Identifiers
//
//   - Address: 20-byte account or contract address
//   - AssetID: ticker-style asset identifier, with NativeAsset for the chain's native coin
//   - PairKey: ordered pair of asset ids a sub-system trades
//
// # Collaborators
//
// IssuingAuthority: accepts asset issuance requests and later reports the
// result asynchronously.
//
// TemplateBackend: deploys a sub-system from the configured template and
// upgrades existing ones in place.
//
// Subsystem and SubsystemFactory: a deployed sub-system, administered by the
// factory and handed the minted asset once issuance completes.
//
// Router and RouterFactory: registration of new pairs with the router.
//
// Treasury: transfers of the native coin held by the factory.
//
// # Storage
//
// StateStore persists the factory's state snapshot. StateStoreLocation parses
// the store URIs accepted on the command line.
//
// # Errors
//
// errors.go lists the sentinel errors every layer wraps, so callers can match
// them with errors.Is regardless of which component failed.
package interfaces
