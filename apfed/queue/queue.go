// Package queue implements the outbound delivery queue: per-recipient send
// tasks, shared-inbox deduplication, bounded-concurrency workers, and a
// fixed retry schedule with exponential backoff.
package queue

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/apfed/httpsig"
)

// retrySchedule holds the delay before attempts 2, 3, and 4, per spec
// §4.6: "delays of 60s, 3600s, and 216000s (2.5d)". Attempt 1 runs
// immediately. After attempt 4 fails, the task is discarded.
var retrySchedule = [3]time.Duration{
	60 * time.Second,
	3600 * time.Second,
	216000 * time.Second,
}

const maxAttempts = 4

// SigningIdentity is the actor whose key signs a delivery.
type SigningIdentity struct {
	KeyID      string
	PrivateKey string
}

// task is a delivery task: (recipient inbox, signed request template,
// attempt count). The "signed request template" is represented here as the
// serialized body plus the signing identity, since the actual HTTP request
// and its Date/Signature headers must be rebuilt fresh at dispatch time.
type task struct {
	inboxURL string
	body     []byte
	sender   SigningIdentity
	attempt  int
}

// Queue is a bounded multi-producer, multi-consumer outbound delivery
// queue. Build one with New and call Run to start its worker pools; call
// QueueActivity to submit deliveries and Shutdown to drain.
type Queue struct {
	cfg *apfed.Config

	firstAttempt chan task
	retrySem     *semaphore.Weighted
	firstSem     *semaphore.Weighted

	mu          sync.Mutex
	shuttingDown bool
	inFlight    sync.WaitGroup

	wheel *retryWheel

	now func() time.Time
}

// New builds a Queue from cfg. Call Run to start accepting and processing
// deliveries.
func New(cfg *apfed.Config) *Queue {
	q := &Queue{
		cfg:          cfg,
		firstAttempt: make(chan task, cfg.QueueBoundCapacity()),
		firstSem:     semaphore.NewWeighted(int64(cfg.WorkerCount())),
		retrySem:     semaphore.NewWeighted(int64(cfg.RetryWorkerCount())),
		now:          time.Now,
	}
	q.wheel = newRetryWheel(q.now, func(t task) { q.dispatchRetry(t) })
	return q
}

// Run starts the worker pools that drain the first-attempt channel. It
// blocks until ctx is cancelled; call it in its own goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-q.firstAttempt:
			if !ok {
				return
			}
			if err := q.firstSem.Acquire(ctx, 1); err != nil {
				return
			}
			q.inFlight.Add(1)
			go func(t task) {
				defer q.firstSem.Release(1)
				defer q.inFlight.Done()
				q.attempt(ctx, t)
			}(t)
		}
	}
}

// QueueActivity implements spec §4.6: serialize once, dedupe inboxes
// preferring shared inboxes, drop local-domain and verifier-rejected
// inboxes, and submit a task per surviving recipient. In debug mode each
// task executes inline so its errors propagate to the caller.
func (q *Queue) QueueActivity(ctx context.Context, body []byte, sender SigningIdentity, inboxes []Inbox) error {
	q.mu.Lock()
	down := q.shuttingDown
	q.mu.Unlock()
	if down {
		return apfed.ErrQueueShuttingDown
	}

	targets := dedupeInboxes(inboxes)

	for _, inboxURL := range targets {
		host, err := hostOf(inboxURL)
		if err != nil {
			continue
		}
		if q.cfg.IsLocalDomain(host) {
			continue
		}
		if err := q.cfg.URLVerifier()(ctx, inboxURL); err != nil {
			continue
		}

		t := task{inboxURL: inboxURL, body: body, sender: sender, attempt: 1}

		if q.cfg.Debug() {
			if err := q.deliverOnce(ctx, t); err != nil {
				return err
			}
			continue
		}

		select {
		case q.firstAttempt <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Inbox is one delivery recipient: its personal inbox, and the shared
// inbox it participates in, if any. When two recipients share an inbox,
// QueueActivity sends only once.
type Inbox struct {
	InboxURL       string
	SharedInboxURL string
}

func dedupeInboxes(inboxes []Inbox) []string {
	seen := make(map[string]bool, len(inboxes))
	var out []string
	for _, inbox := range inboxes {
		target := inbox.InboxURL
		if inbox.SharedInboxURL != "" {
			target = inbox.SharedInboxURL
		}
		if seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// attempt performs one delivery attempt and either discards the task or
// re-queues it into the retry wheel, per spec §4.6's classification of
// response outcomes.
func (q *Queue) attempt(ctx context.Context, t task) {
	err := q.deliverOnce(ctx, t)
	if err == nil {
		return
	}

	var rf *retryableFailure
	if !asRetryable(err, &rf) {
		log.Printf("queue: permanent failure delivering to %s: %v", t.inboxURL, err)
		return
	}

	if t.attempt >= maxAttempts {
		log.Printf("queue: giving up on %s after %d attempts: %v", t.inboxURL, t.attempt, err)
		return
	}

	delay := retrySchedule[t.attempt-1]
	next := task{inboxURL: t.inboxURL, body: t.body, sender: t.sender, attempt: t.attempt + 1}
	log.Printf("queue: retryable failure delivering to %s (attempt %d), retry in %s: %v", t.inboxURL, t.attempt, delay, err)
	q.wheel.schedule(next, delay)
}

func (q *Queue) dispatchRetry(t task) {
	ctx := context.Background()
	if err := q.retrySem.Acquire(ctx, 1); err != nil {
		return
	}
	q.inFlight.Add(1)
	go func() {
		defer q.retrySem.Release(1)
		defer q.inFlight.Done()
		q.attempt(ctx, t)
	}()
}

// retryableFailure marks an error as one spec §4.6 classifies as
// retryable: timeout, connection error, 5xx, 408, or 429.
type retryableFailure struct{ error }

func asRetryable(err error, out **retryableFailure) bool {
	rf, ok := err.(*retryableFailure)
	if ok {
		*out = rf
	}
	return ok
}

// deliverOnce signs the request fresh (so Date is current per attempt) and
// POSTs it, classifying the outcome per spec §4.6.
func (q *Queue) deliverOnce(ctx context.Context, t task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.inboxURL, bytes.NewReader(t.body))
	if err != nil {
		return &retryableFailure{fmt.Errorf("apfed/queue: build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/activity+json")
	req.Header.Set("Accept", "application/activity+json")

	if err := httpsig.Sign(req, t.sender.KeyID, t.sender.PrivateKey, httpsig.SignOptions{}); err != nil {
		return fmt.Errorf("apfed/queue: sign request: %w", err)
	}

	client := q.cfg.HTTPClient()
	resp, err := client.Do(req)
	if err != nil {
		return &retryableFailure{fmt.Errorf("apfed/queue: request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &retryableFailure{fmt.Errorf("apfed/queue: retryable status %d from %s", resp.StatusCode, t.inboxURL)}
	default:
		return fmt.Errorf("apfed/queue: permanent status %d from %s", resp.StatusCode, t.inboxURL)
	}
}

// Shutdown stops accepting new tasks and waits for in-flight deliveries to
// finish, up to ctx's deadline. Pending retry-delayed tasks are abandoned:
// ActivityPub delivery is best-effort, and recipients resync via polling or
// future fetches.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.shuttingDown = true
	q.mu.Unlock()

	q.wheel.stop()

	done := make(chan struct{})
	go func() {
		q.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
