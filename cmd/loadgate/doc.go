// Package main hosts the loadgate CLI entrypoint and command graph.
//
// Commands map onto the pipeline stages: evaluate decides from the webhook
// payload, publish runs the container publish command, dispatch notifies the
// deployment repository, and run does all three. Config loading, logging, and
// tracing are set up once in the root command's pre-run hook.
//
// Results go to stdout and $GITHUB_OUTPUT; logs go to stderr.
package main
