// Package preflight verifies that a run has what it needs before any
// container is published: a resolvable publish command, both credentials, and
// a dispatch token that can see the target repository.
package preflight
