// Package catalog holds the movie data model and the shared catalog the
// scanner mutates concurrently.
//
// A [Catalog] is passed explicitly to every component; there is no global
// instance. Movie sets reference their members by id and the movie to set
// relation is kept by the catalog, so movies never point at their set.
// Persistence goes through a [Store], implemented by the database package.
package catalog
