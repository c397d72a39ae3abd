// Package communitycontent provides the moderation core for community
// contributed content (notes and projects).
//
// It exposes a Service for submitting and reading items, a Repository
// abstraction with memory and Postgres implementations, and typed errors
// shared by the moderation, stats, credential and identity subpackages.
//
// Visibility Model
//
// An item is either pending or approved. Only approved items are visible to
// callers that are not operators. Trusted submissions enter as approved,
// review submissions enter as pending. Items never move from approved back to
// pending; removing a visible item requires an explicit delete.
//
// Every operation takes the calling Principal as an explicit argument. The
// Principal is produced once per request by the identity package.
package communitycontent
