// Package migrations holds the schema migrations. Each file registers its
// migrations from init(); blank-import this package wherever migrations run.
package migrations
