// package models defines the data model for the songbook client.
//
// Core types:
//   - [Song] : a catalog entry with lyrics and chords
//   - [Playlist] : a named, user-owned, ordered set of song references
//   - [PlaylistShare] : a denormalized playlist snapshot for copy-on-accept sharing
//   - [Session] : the authenticated identity and its bearer credential
//   - [Notification] : a polled inbox entry (e.g. an incoming share)
//
// All types serialize to the REST API's JSON wire format and to the local
// snapshot cache with the same tags.
package models
