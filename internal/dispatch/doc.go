// Package dispatch notifies the deployment repository through GitHub's
// repository_dispatch API.
//
// Each Send issues exactly one authenticated POST whose body is
// {"event_type":...,"client_payload":{"version":...}}. A non-2xx response is
// fatal and never retried.
package dispatch
