package datasource

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"nday-analyzer/src/data_source/yahoo"
	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"
)

// SourceRegistry holds the named series sources. The first registered
// source is the default.
type SourceRegistry struct {
	Sources     map[string]interfaces.ISeriesSource
	DefaultName string
	Logger      *logger.Logger
	mu          sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSourceRegistry(sources []interfaces.ISeriesSource, log *logger.Logger) *SourceRegistry {
	r := &SourceRegistry{
		Sources: make(map[string]interfaces.ISeriesSource),
		Logger:  log,
	}

	for _, s := range sources {
		if r.DefaultName == "" {
			r.DefaultName = s.Name()
		}
		r.Sources[s.Name()] = s
	}

	return r
}

// -----------------------------------------------------------------------------

// BuildSourceRegistry creates every configured source. When cache is not
// nil each source is wrapped in a CachedSource with the configured TTL.
func BuildSourceRegistry(cfg *models.MConfig, netMgr interfaces.INetworkManager, cache interfaces.ISeriesCache, recorder *metrics.Recorder, log *logger.Logger) (*SourceRegistry, error) {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	sources := make([]interfaces.ISeriesSource, 0, len(cfg.Sources))

	for _, sc := range cfg.Sources {
		var src interfaces.ISeriesSource
		switch sc.Type {
		case "yahoo", "":
			src = yahoo.NewYahooFinanceSource(sc, netMgr)
		default:
			return nil, fmt.Errorf("unknown source type %q for %s", sc.Type, sc.Name)
		}

		if cache != nil && ttl > 0 {
			src = NewCachedSource(src, cache, ttl, recorder)
		}
		sources = append(sources, src)
	}

	r := NewSourceRegistry(sources, log)
	if len(r.Sources) != len(sources) {
		return nil, fmt.Errorf("duplicate source names in configuration")
	}
	log.Info("Registered %d source(s), default %s", len(r.Sources), r.DefaultName)
	return r, nil
}

// -----------------------------------------------------------------------------

// AddSource registers a new source
func (r *SourceRegistry) AddSource(source interfaces.ISeriesSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := source.Name()
	if _, exists := r.Sources[name]; exists {
		return fmt.Errorf("source %s already exists", name)
	}

	r.Sources[name] = source
	if r.DefaultName == "" {
		r.DefaultName = name
	}
	r.Logger.Info("Added source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource unregisters a source. The default cannot be removed.
func (r *SourceRegistry) RemoveSource(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}
	if name == r.DefaultName {
		return fmt.Errorf("source %s is the default source", name)
	}

	delete(r.Sources, name)
	r.Logger.Info("Removed source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// GetSource retrieves a source by name. An empty name returns the default.
func (r *SourceRegistry) GetSource(name string) (interfaces.ISeriesSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.DefaultName
	}
	source, exists := r.Sources[name]
	if !exists {
		return nil, fmt.Errorf("source %q not found", name)
	}
	return source, nil
}

// -----------------------------------------------------------------------------

// Names returns the registered source names, sorted.
func (r *SourceRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.Sources))
	for name := range r.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
