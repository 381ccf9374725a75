// Package handlers implements the read-only HTTP lookup API of the asset agent.
//
// Handlers delegate to services.AssetService and only deal with parameter
// parsing, error mapping and model-to-API conversion:
//
//	GET /api/v1/assets/:name                         full asset with ext attributes
//	GET /api/v1/assets/:name/id                      internal name to id
//	GET /api/v1/assets/:name/parents                 ancestor chain, nearest first
//	GET /api/v1/assets/:name/groups                  group memberships
//	GET /api/v1/assets/:name/power?direction=        power chain (upstream or downstream)
//	GET /api/v1/ename/:ename                         external name to internal name and id
//
// # Error Mapping
//
//	ElementNotFoundError → 404
//	InvalidFormatError   → 400
//	anything else        → 500 (logged)
package handlers
