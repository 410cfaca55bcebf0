package syncproto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/refset"
	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/vcserr"
)

// httpClient is shared across Pull/Push calls; it carries no cookie jar
// or redirect policy of its own since the protocol has no session state
// to preserve across a redirect.
var httpClient = &http.Client{Timeout: 30 * time.Second}

const wireContentType = "application/octet-stream"

// withRetry wraps attempt with bounded exponential backoff: 3 attempts,
// 200ms initial, retrying only when attempt returns a retry.RetryableError
// (a transient net.Error). Protocol-level failures (unknown branch, bad
// status) are returned as plain errors and never retried (spec §5: "No
// timeouts are specified"; this only governs whether a failed attempt is
// retried, not how long any single attempt may block).
func withRetry(ctx context.Context, attempt func(context.Context) error) error {
	b, err := retry.NewExponential(200 * time.Millisecond)
	if err != nil {
		return err
	}
	b = retry.WithMaxRetries(2, b) // first try plus 2 retries = 3 attempts
	return retry.Do(ctx, b, attempt)
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Pull issues `GET <remoteURL>?branch=<branch>` and decodes the server's
// PullResponse (spec §4.9).
func Pull(ctx context.Context, remoteURL, branch string) (*PullResponse, error) {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing remote url: %v", vcserr.ErrNetwork, err)
	}
	q := u.Query()
	q.Set("branch", branch)
	u.RawQuery = q.Encode()

	var status int
	var body []byte

	err = withRetry(ctx, func(ctx context.Context) error {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if rerr != nil {
			return rerr
		}
		resp, rerr := httpClient.Do(req)
		if rerr != nil {
			if isTransient(rerr) {
				return retry.RetryableError(rerr)
			}
			return rerr
		}
		defer resp.Body.Close()
		b, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return retry.RetryableError(rerr)
		}
		status = resp.StatusCode
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: pulling %q from %s: %v", vcserr.ErrNetwork, branch, remoteURL, err)
	}

	switch status {
	case http.StatusOK:
		pr, derr := DecodePullResponse(body)
		if derr != nil {
			return nil, fmt.Errorf("%w: decoding pull response: %v", vcserr.ErrProtocol, derr)
		}
		return &pr, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: remote has no branch %q", vcserr.ErrUnknownRef, branch)
	default:
		return nil, fmt.Errorf("%w: remote responded with status %d", vcserr.ErrProtocol, status)
	}
}

// Push issues `POST <remoteURL>` with req's canonical encoding as the
// body (spec §4.9).
func Push(ctx context.Context, remoteURL string, req *PushRequest) error {
	body := canon.Encode(req)

	var status int
	err := withRetry(ctx, func(ctx context.Context) error {
		httpReq, rerr := http.NewRequestWithContext(ctx, http.MethodPost, remoteURL, bytes.NewReader(body))
		if rerr != nil {
			return rerr
		}
		httpReq.Header.Set("Content-Type", wireContentType)
		resp, rerr := httpClient.Do(httpReq)
		if rerr != nil {
			if isTransient(rerr) {
				return retry.RetryableError(rerr)
			}
			return rerr
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		status = resp.StatusCode
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: pushing %q to %s: %v", vcserr.ErrNetwork, req.Branch, remoteURL, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: remote responded with status %d", vcserr.ErrProtocol, status)
	}
	return nil
}

// Clone initializes a fresh repository rooted at destDir, adds a remote
// named "origin" pointing at remoteURL, pulls branch from it, moves the
// local "master" branch's tip to the pulled tip, and checks master out
// (spec §4.9's Clone sequence).
func Clone(ctx context.Context, remoteURL, branch, destDir string) (*repo.Repository, error) {
	r := repo.New(destDir)
	if err := r.Remotes.Add("origin", remoteURL); err != nil {
		return nil, err
	}

	pr, err := Pull(ctx, remoteURL, branch)
	if err != nil {
		return nil, err
	}

	RawImport(r.Store, r.Refs, pr.Bundle, "origin/"+branch, pr.BranchInfo)
	r.Refs.AddOrSetBranch("master", refset.Branch{Created: pr.BranchInfo.Created, Tip: pr.BranchInfo.Tip})

	if pr.BranchInfo.Tip != nil {
		if err := r.Checkout("master"); err != nil {
			return nil, err
		}
	}

	return r, nil
}
