// Package storage owns the flat directory uploaded videos are written to.
//
// Store.Save gives every upload a collision-free name of the form
// "<unix-millis>-<uuid><ext>" and writes it through a hidden temp file that is
// renamed into place, so a partially written upload is never visible to the
// static file server or counted as stored.
//
// Watcher keeps a live count of stored files by listening for fsnotify events
// on the directory. Deletions by the retention sweeper show up the same way as
// deletions from outside the process.
package storage
