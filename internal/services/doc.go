// Package services implements the business logic of the asset agent.
//
// Services sit between the inbound surfaces (message bus, REST handlers,
// inventory import) and the store. They own transactions and retries; the
// store only knows how to run single statements.
//
//	bus / handlers / inventory
//	    │
//	    ▼
//	MessageHandler ──► Converter ──► AssetService ──► store.Store
//	                       │
//	                       └──► Resolver (id ↔ name lookups)
//
// # AssetService
//
// Upsert writes the asset row, merges its ext attributes and links it to
// groups inside one transaction:
//
//	id, err := assetSrv.Upsert(ctx, asset, isUpdate, groupIDs...)
//
// A create of an existing name fails with a ConflictError. An update of a
// missing name creates it. Updates that lose a write race against another
// transaction are retried with exponential backoff; conflicts found by rule
// checks, such as a duplicate external name, are returned at once.
//
// Delete removes ext attributes, group links and power links before the asset
// row. An asset that still has children cannot be deleted.
//
// An update that carries no display name keeps the stored one.
//
// Inventory merges ext attributes reported by a discovery agent. A discovered
// "name" becomes the external name, like it does for change messages. Values are
// stored as read-only except for the always writable keys (name, ip.1 and
// endpoint.*), and stored read-only values are never overwritten by writable
// ones.
//
// # Converter
//
// Converter turns models.Asset into the flat wire message and back. Parent ids
// travel as strings with "0" meaning no parent. In test mode no lookups are
// made: outbound parents carry the parent name and any inbound parent, id or
// name, is set to TestParentName.
//
// # MessageHandler
//
// MessageHandler dispatches a decoded message by operation:
//
//	create, update  Upsert then Get
//	delete          Delete, reply carries only the name
//	retire          set status retired then Get
//	inventory       merge ext then Get
//	get             Get
//
// Messages of another kind fail with WrongMessageTypeError and unknown
// operations with InvalidFormatError.
package services
