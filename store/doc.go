// Package store houses persistence of hierarchy configurations keyed by
// (tenantID, instanceID), plus the Adapter carrying the partial-update merge
// contract. The DocumentStore interface keeps higher level packages (cache,
// facade) independent of the concrete backend.
//
// Add additional backends (Postgres, Mongo, Firestore, etc.) alongside the
// in-memory and SQLite implementations without changing any calling code;
// only the wiring layer needs to decide which implementation to instantiate.
package store
