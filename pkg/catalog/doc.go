// Package catalog holds the institution and collection records the ingestion
// pipeline produces, the name normalization that defines their identity, and
// the persistence port (Store, Tx) every backend implements.
//
// Institutions are unique by normalized name. Collections are unique by
// normalized name within their institution, so two institutions may each own
// a collection called "Archive".
package catalog
