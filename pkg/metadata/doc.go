// Package metadata persists one JSON record per archived post and reads the
// records back for reporting.
package metadata
