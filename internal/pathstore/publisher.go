package pathstore

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/docstruct/internal/structure"
)

// Publisher writes extraction results under docs/{doc_id}/ in pathstore,
// retrying throttled and server-side failures.
type Publisher struct {
	client   *Client
	log      *slog.Logger
	attempts uint
	backoff  func(attempt int) time.Duration
}

func NewPublisher(client *Client, attempts int, log *slog.Logger) *Publisher {
	if attempts <= 0 {
		attempts = 3
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		client:   client,
		log:      log,
		attempts: uint(attempts),
		backoff:  Backoff,
	}
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// DocKey is the node holding every result for a document.
func DocKey(docID string) string {
	return "docs/" + docID
}

// Publish writes the result node for res.Kind and, for components, one node
// per component. It returns the number of nodes written.
func (p *Publisher) Publish(ctx context.Context, docID, filename string, res structure.Result) (int, error) {
	source := "docstruct:" + docID
	key := fmt.Sprintf("%s/%s", DocKey(docID), res.Kind)
	err := p.put(ctx, key, NodeRequest{
		Value: map[string]any{
			"filename": filename,
			"kind":     res.Kind,
			"count":    res.Count,
			"summary":  res.Summary,
			"result":   res,
		},
		Source: source,
	})
	if err != nil {
		return 0, err
	}
	written := 1

	for i, slug := range structure.Slugs(res.Components) {
		c := res.Components[i]
		err := p.put(ctx, key+"/"+slug, NodeRequest{
			Value:  c,
			Source: source,
		})
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// Unpublish removes every node under the document.
func (p *Publisher) Unpublish(ctx context.Context, docID string) error {
	return p.retry(ctx, "unpublish", func() error {
		return p.client.DeleteNode(ctx, DocKey(docID), true)
	})
}

// Published lists the nodes stored under the document.
func (p *Publisher) Published(ctx context.Context, docID string, limit int) ([]ListChildrenResponse, error) {
	var nodes []ListChildrenResponse
	err := p.retry(ctx, "list", func() error {
		var err error
		nodes, err = p.client.ListChildren(ctx, DocKey(docID), limit)
		return err
	})
	return nodes, err
}

func (p *Publisher) put(ctx context.Context, key string, req NodeRequest) error {
	return p.retry(ctx, key, func() error {
		return p.client.PutNode(ctx, key, req)
	})
}

func (p *Publisher) retry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return p.backoff(int(n) - 1)
		}),
		retry.OnRetry(func(n uint, err error) {
			p.log.Warn("retryable pathstore error", "op", op, "attempt", n, "error", err)
		}),
	)
}
