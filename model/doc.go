// Package model defines the core data types shared across the videoset
// packages: records, shards and remote dataset handles.
package model
