package vuln

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Collection is a named list of endpoints tested one after another.
type Collection struct {
	Name      string               `json:"name" yaml:"name"`
	Endpoints []CollectionEndpoint `json:"endpoints" yaml:"endpoints"`
}

type CollectionEndpoint struct {
	URL    string `json:"url" yaml:"url"`
	Method string `json:"method" yaml:"method"`
}

// EndpointRun is the outcome of one collection entry. Err is set only when
// the entry itself was malformed; Session is nil in that case.
type EndpointRun struct {
	Endpoint CollectionEndpoint
	Session  *finding.Session
	Err      error
}

// LoadCollection reads a collection file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return ParseCollection(data, format)
}

// ParseCollection decodes data as format ("json" or "yaml").
func ParseCollection(data []byte, format string) (*Collection, error) {
	var c Collection
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &c)
	case "json":
		err = json.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("%w: unknown collection format %q", sharedErrors.ErrInvalidCollection, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidCollection, err)
	}
	if len(c.Endpoints) == 0 {
		return nil, sharedErrors.ErrEmptyCollection
	}
	return &c, nil
}

// RunCollection tests each endpoint in order, pausing delay (default
// 1000ms) after each entry before starting the next. A malformed entry is
// recorded and skipped. onDone, if set, is called after each entry.
// Cancellation stops before the next entry and returns the runs completed
// so far.
func (p *Pipeline) RunCollection(ctx context.Context, c *Collection, delay time.Duration, onDone func(EndpointRun)) []EndpointRun {
	if delay <= 0 {
		delay = constants.CollectionDelay
	}
	logger := p.logger().With(zap.String("collection", c.Name))

	runs := make([]EndpointRun, 0, len(c.Endpoints))
	for i, entry := range c.Endpoints {
		wait := time.Duration(0)
		if i > 0 {
			wait = delay
		}
		if err := pause(ctx, wait); err != nil {
			logger.Warn("collection run interrupted", zap.Int("completed", i), zap.Int("total", len(c.Endpoints)))
			break
		}

		run := EndpointRun{Endpoint: entry}
		run.Session, run.Err = p.TestEndpoint(ctx, entry.URL, entry.Method)
		if run.Err != nil {
			logger.Warn("skipping malformed endpoint", zap.String("url", entry.URL), zap.Error(run.Err))
		}
		runs = append(runs, run)
		if onDone != nil {
			onDone(run)
		}
	}
	return runs
}
