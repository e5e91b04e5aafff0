// Package domain contains plain data entities shared across the core
// registries. No locking, no transport handles: cross-references between
// users, channels and endpoints go through identifier strings only, looked
// up via the owning registry, so the object graph stays acyclic.
package domain

// UserID identifies a registered user for the lifetime of their session.
type UserID string

// ChannelID identifies a channel.
type ChannelID string

// Ufrag is the server-chosen ICE username fragment identifying a media
// endpoint. It is immutable once assigned.
type Ufrag string
