// Package artifacts locates run outputs on disk and optionally publishes
// them to object storage.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/obs"
)

// Store resolves artifact paths under one output directory.
type Store struct {
	Dir string
}

// Path returns the local path of name inside the store.
func (s Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Ensure creates the output directory.
func (s Store) Ensure() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errs.Wrap(errs.Artifact, "create output directory", err)
	}
	return nil
}

// Uploader is the object storage surface the publisher needs.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	GetPublicURL(key string) string
}

// DefaultUploadRate caps uploads per second. A normal run publishes a
// handful of files and never waits; the limiter matters for larger suites,
// and its Wait stops publication as soon as the run is canceled.
const DefaultUploadRate = rate.Limit(10)

// Publisher uploads artifacts of one run. It is safe for concurrent use.
type Publisher struct {
	up      Uploader
	runID   string
	limiter *rate.Limiter

	mu        sync.Mutex
	published []string
}

// NewPublisher returns a publisher writing under runs/<runID>/.
func NewPublisher(up Uploader, runID string) *Publisher {
	return NewPublisherWithRate(up, runID, DefaultUploadRate, 4)
}

// NewPublisherWithRate is NewPublisher with an explicit upload rate (per
// second) and burst.
func NewPublisherWithRate(up Uploader, runID string, limit rate.Limit, burst int) *Publisher {
	return &Publisher{up: up, runID: runID, limiter: rate.NewLimiter(limit, burst)}
}

// Key returns the object key for a file produced by scenario. Files that
// belong to the whole run, such as the report, use an empty scenario.
func (p *Publisher) Key(scenario, localPath string) string {
	parts := []string{"runs", sanitizeSegment(p.runID)}
	if scenario != "" {
		parts = append(parts, sanitizeSegment(scenario))
	}
	parts = append(parts, filepath.Base(localPath))
	return path.Join(parts...)
}

// Publish uploads localPath and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, scenario, localPath string) (string, error) {
	key := p.Key(scenario, localPath)
	if err := p.limiter.Wait(ctx); err != nil {
		return "", errs.Wrap(errs.Canceled, "publish "+filepath.Base(localPath), err)
	}
	if err := p.up.PutFile(ctx, key, localPath); err != nil {
		return "", errs.Wrap(errs.Artifact, fmt.Sprintf("publish %s", filepath.Base(localPath)), err)
	}
	p.mu.Lock()
	p.published = append(p.published, key)
	p.mu.Unlock()

	url := p.up.GetPublicURL(key)
	obs.From(ctx).Info("artifact published", "pkg", "artifacts", "key", key, "url", url)
	return url, nil
}

// Prefix returns the key prefix every artifact of the run is stored under.
func (p *Publisher) Prefix() string {
	return "runs/" + sanitizeSegment(p.runID) + "/"
}

// Verify lists the run prefix and fails when a key this publisher uploaded
// is not there.
func (p *Publisher) Verify(ctx context.Context) error {
	keys, err := p.up.ListKeys(ctx, p.Prefix())
	if err != nil {
		return errs.Wrap(errs.Artifact, "list published artifacts", err)
	}
	stored := make(map[string]bool, len(keys))
	for _, k := range keys {
		stored[k] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var missing []string
	for _, k := range p.published {
		if !stored[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.Artifact, "artifacts missing after upload: "+strings.Join(missing, ", "))
	}
	obs.From(ctx).Info("artifacts verified", "pkg", "artifacts", "prefix", p.Prefix(), "count", len(p.published))
	return nil
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}
