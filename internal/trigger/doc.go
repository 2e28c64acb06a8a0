// Package trigger decides whether a pull request event enables the load-test
// deployment.
//
// A labeled action triggers only when the newly applied label equals the rule
// label. Re-check actions (reopened and synchronize by default) trigger when
// the label is already on the pull request. Every other action is a silent
// skip. Evaluate is a pure function; LoadEvent reads the webhook payload that
// GitHub Actions writes to $GITHUB_EVENT_PATH.
package trigger
