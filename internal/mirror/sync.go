package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/resilience"
	"github.com/sells-group/pump-selector/internal/store"
)

// FileStore is the slice of store.Store the mirror reads and writes.
type FileStore interface {
	GetFile(ctx context.Context, id string) (*model.DatasetFile, error)
	ListFiles(ctx context.Context) ([]model.DatasetFile, error)
	SaveFile(ctx context.Context, f *model.DatasetFile) error
}

// PushResult summarizes a PushAll run.
type PushResult struct {
	Pushed int
	Failed int
}

// PushAll uploads every local file, up to concurrency at a time. Individual
// failures are logged and counted; only a failure to read the local store
// aborts the run.
func PushAll(ctx context.Context, c *Client, s FileStore, concurrency int) (PushResult, error) {
	files, err := s.ListFiles(ctx)
	if err != nil {
		return PushResult{}, eris.Wrap(err, "mirror: list local files")
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu  sync.Mutex
		res PushResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, meta := range files {
		g.Go(func() error {
			f, err := s.GetFile(gctx, meta.ID)
			if err != nil {
				return eris.Wrapf(err, "mirror: load %s", meta.ID)
			}
			perr := c.Push(gctx, f)
			mu.Lock()
			defer mu.Unlock()
			if perr != nil {
				res.Failed++
				zap.L().Warn("mirror: push failed",
					zap.String("file_id", f.ID),
					zap.String("error_type", resilience.ClassifyError(perr)),
					zap.Error(perr),
				)
				return nil
			}
			res.Pushed++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// PullResult summarizes a Pull run.
type PullResult struct {
	Added   int
	Updated int
	Skipped int
}

// Pull merges the mirror's files into the local store. Unknown files are
// added; known files are replaced only when the remote copy is newer. Role
// assignments stay local.
func Pull(ctx context.Context, c *Client, s FileStore) (PullResult, error) {
	var res PullResult
	remote, err := c.List(ctx)
	if err != nil {
		return res, err
	}

	for i := range remote {
		f := &remote[i]
		if f.ID == "" {
			res.Skipped++
			continue
		}
		local, err := s.GetFile(ctx, f.ID)
		switch {
		case eris.Is(err, store.ErrNotFound):
			if err := s.SaveFile(ctx, f); err != nil {
				return res, eris.Wrapf(err, "mirror: save %s", f.ID)
			}
			res.Added++
		case err != nil:
			return res, eris.Wrapf(err, "mirror: load %s", f.ID)
		case f.UpdatedAt.After(local.UpdatedAt):
			if err := s.SaveFile(ctx, f); err != nil {
				return res, eris.Wrapf(err, "mirror: save %s", f.ID)
			}
			res.Updated++
		default:
			res.Skipped++
		}
	}

	zap.L().Info("mirror: pull complete",
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// Notifier forwards local dataset changes to the mirror in the background.
// A nil Notifier, or one without a client, does nothing.
type Notifier struct {
	client  *Client
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotifier creates a Notifier. c may be nil when mirroring is disabled.
func NewNotifier(c *Client, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Notifier{client: c, timeout: timeout}
}

// FileSaved pushes f without blocking the caller.
func (n *Notifier) FileSaved(f *model.DatasetFile) {
	if n == nil || n.client == nil || f == nil {
		return
	}
	cp := *f
	n.run("push", cp.ID, func(ctx context.Context) error {
		return n.client.Push(ctx, &cp)
	})
}

// FileDeleted removes id from the mirror without blocking the caller.
func (n *Notifier) FileDeleted(id string) {
	if n == nil || n.client == nil {
		return
	}
	n.run("delete", id, func(ctx context.Context) error {
		return n.client.Delete(ctx, id)
	})
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *Notifier) run(op, id string, fn func(ctx context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			zap.L().Warn("mirror: background sync failed",
				zap.String("op", op),
				zap.String("file_id", id),
				zap.Error(err),
			)
		}
	}()
}
