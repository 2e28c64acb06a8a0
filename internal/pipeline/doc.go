// Package pipeline sequences the load-test gate: evaluate the trigger, run
// the publish delegate, then send the dispatch.
//
// Each Run carries a fresh correlation ID through the context so every log
// line of the run can be grouped. A triggered run always ends with one
// notification describing success or the failing stage.
package pipeline
