// Package storage decides where archived posts live and writes their media.
//
// A Layout turns a favorites.Post into a HydratedPost carrying its media path
// (<media_root>/<md5>.<ext>) and metadata path (<metadata_root>/<md5>.json).
// The Manager uses the filesystem as its only ledger: a post is archived iff
// a file exists at its media path, so interrupted runs resume where they
// stopped.
package storage
