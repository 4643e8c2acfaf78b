package activitypub

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/apfed/fetch"
	"github.com/driftwood-dev/apfed/apfed/queue"
	"github.com/driftwood-dev/apfed/util"
)

// federation bundles the process-wide federation state: the immutable
// config, the shared remote-object cache, and the outbound delivery queue.
// It is built once from util.AppConfig, mirroring db.GetDB's singleton.
type federation struct {
	cfg   *apfed.Config
	cache *fetch.Cache
	queue *queue.Queue
}

var (
	fedInstance *federation
	fedOnce     sync.Once
	fedErr      error
)

// Init builds the federation singleton from conf and starts its delivery
// queue worker pool. Call it once at startup before any ActivityPub
// handler runs; GetFederation will reuse the result afterward.
func Init(conf *util.AppConfig) error {
	fedOnce.Do(func() {
		opts := []apfed.Option{
			apfed.WithDebug(conf.Conf.Debug),
			apfed.WithHTTPSignatureCompat(conf.Conf.HttpSignatureCompat),
			apfed.WithHTTPFetchLimit(conf.Conf.HttpFetchLimit),
			apfed.WithWorkerCount(conf.Conf.WorkerCount),
			apfed.WithRetryWorkerCount(conf.Conf.RetryWorkerCount),
			apfed.WithQueueBoundCapacity(conf.Conf.QueueBoundCapacity),
		}
		cfg, err := apfed.NewConfig(conf.Conf.SslDomain, opts...)
		if err != nil {
			fedErr = fmt.Errorf("activitypub: build config: %w", err)
			return
		}

		q := queue.New(cfg)
		go q.Run(context.Background())

		fedInstance = &federation{
			cfg:   cfg,
			cache: fetch.NewCache(),
			queue: q,
		}
		log.Printf("ActivityPub: federation initialized for %s (workers=%d, retry_workers=%d)",
			cfg.Domain(), cfg.WorkerCount(), cfg.RetryWorkerCount())
	})
	return fedErr
}

// GetFederation returns the singleton built by Init. It panics if Init has
// not been called.
func GetFederation() *federation {
	if fedInstance == nil {
		panic("activitypub: Init must be called before GetFederation")
	}
	return fedInstance
}

// Shutdown drains the delivery queue, giving in-flight deliveries up to ctx's
// deadline to finish.
func Shutdown(ctx context.Context) error {
	if fedInstance == nil {
		return nil
	}
	return fedInstance.queue.Shutdown(ctx)
}
