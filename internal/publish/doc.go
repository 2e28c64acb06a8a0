// Package publish runs the container publish procedure that precedes the
// deployment dispatch.
//
// The procedure is opaque: it receives a naming prefix and two credentials and
// reports a version. CommandDelegate runs a configured command with
// LOADGATE_PREFIX and the credentials in its environment and reads the version
// from a version=<v> stdout line, falling back to the last non-empty line.
// Credential values are masked in streamed log output. StaticDelegate serves CI
// workflows where publishing already happened in an earlier job.
package publish
