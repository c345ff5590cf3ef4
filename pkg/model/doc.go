// Package model holds the per-request Model Store handed from handlers to view
// engines. A store is filled by the handler, snapshotted by the dispatcher,
// and then exposed to the selected engine as request attributes.
package model
