package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"loadgate/internal/config"
	"loadgate/internal/dispatch"
)

// CheckPublishCommand verifies the publish binary resolves on PATH or, for
// paths containing a slash, exists and is executable.
func CheckPublishCommand(command []string) Result {
	const name = "Publish command"

	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return Result{Name: name, Detail: "not configured (pass --version to run without it)"}
	}
	binary := strings.TrimSpace(command[0])
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentials reports one result per publish credential.
func CheckCredentials(creds []config.Credential) []Result {
	results := make([]Result, 0, len(creds))
	for _, cred := range creds {
		name := "Credential " + cred.Env
		if cred.Resolve() == "" {
			results = append(results, Result{Name: name, Detail: fmt.Sprintf("unset (export %s or set value)", cred.Env)})
			continue
		}
		results = append(results, Result{Name: name, Passed: true, Detail: "set"})
	}
	return results
}

// CheckDispatchToken verifies a dispatch token is available.
func CheckDispatchToken(cfg config.Dispatch) Result {
	const name = "Dispatch token"
	if strings.TrimSpace(cfg.Token) == "" {
		return Result{Name: name, Detail: "unset (export LOADGATE_DISPATCH_TOKEN or GITHUB_TOKEN)"}
	}
	return Result{Name: name, Passed: true, Detail: "set"}
}

// CheckDispatchAccess verifies the token can see the dispatch repository. It
// uses a 10-second timeout and a single attempt.
func CheckDispatchAccess(ctx context.Context, cfg config.Dispatch, client *http.Client) Result {
	const name = "Dispatch repository"

	owner, repo, err := cfg.RepositoryParts()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, dispatch.RepositoryURL(cfg.APIBaseURL, owner, repo), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("access check failed (%v)", err)}
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.Token))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: cfg.Repository + " reachable"}
	case http.StatusUnauthorized:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	case http.StatusForbidden, http.StatusNotFound:
		return Result{Name: name, Detail: fmt.Sprintf("token cannot access %s (%d)", cfg.Repository, resp.StatusCode)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("access check failed (%d)", resp.StatusCode)}
	}
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "access check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "access check timed out (API unreachable)"
	}
	return fmt.Sprintf("access check failed (%v)", err)
}
