// Package schema defines the data model for dynamic form versions: typed
// column definitions, per-column option sets, and the live value state of a
// filling session. It also provides the column-type registry that maps the
// loose wire tags onto a closed enum plus an input-shape classification, and
// snapshot load/decode helpers for offline fixtures.
package schema
