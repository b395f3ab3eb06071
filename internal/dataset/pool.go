package dataset

import (
	"sync"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Pool lazily instantiates datasets from a multi-section configuration
// on first access and caches them, so a process holding many
// configured datasets (most of them local filesystem trees with their
// own SQLite index) only pays the cost of opening the ones it
// actually touches.
type Pool struct {
	mu      sync.Mutex
	configs map[string]Config
	order   []string
	open    map[string]Dataset
	merged  map[string][]string // merged dataset name -> member names, resolved lazily too
}

// NewPool builds a Pool over configs without opening any of them (each
// is opened on its first Get), keeping the order given for Names (the
// order Dispatcher filter evaluation also uses, per §4.6 "evaluate
// every non-error dataset's filter in declared order").
func NewPool(configs []Config) *Pool {
	p := &Pool{
		configs: make(map[string]Config, len(configs)),
		open:    make(map[string]Dataset),
		merged:  make(map[string][]string),
	}
	for _, cfg := range configs {
		p.configs[cfg.Name] = cfg
		p.order = append(p.order, cfg.Name)
	}
	return p
}

// DefineMerged registers a merged dataset's membership, resolved (and
// its members opened) the first time Get(name) is called for it.
func (p *Pool) DefineMerged(name string, memberNames []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.merged[name] = memberNames
}

// Names returns every configured dataset name, in declaration order.
func (p *Pool) Names() []string {
	return append([]string(nil), p.order...)
}

// Get opens (on first access) and returns the dataset named name.
func (p *Pool) Get(name string) (Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getLocked(name)
}

func (p *Pool) getLocked(name string) (Dataset, error) {
	if ds, ok := p.open[name]; ok {
		return ds, nil
	}
	if members, ok := p.merged[name]; ok {
		datasets := make([]Dataset, 0, len(members))
		for _, m := range members {
			member, err := p.getLocked(m)
			if err != nil {
				return nil, err
			}
			datasets = append(datasets, member)
		}
		ds := NewMerged(name, datasets)
		p.open[name] = ds
		return ds, nil
	}
	cfg, ok := p.configs[name]
	if !ok {
		return nil, arkierr.Consistency("no dataset configured named %q", name)
	}
	ds, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	p.open[name] = ds
	return ds, nil
}

// ErrorDataset returns the dataset configured as the dispatch fallback
// (the `[name]` section with ErrorDataset set), or an error if none
// or more than one is configured.
func (p *Pool) ErrorDataset() (Dataset, error) {
	var found string
	for _, name := range p.order {
		if p.configs[name].ErrorDataset {
			if found != "" {
				return nil, arkierr.Consistency("more than one error dataset configured (%q, %q)", found, name)
			}
			found = name
		}
	}
	if found == "" {
		return nil, arkierr.Consistency("no error dataset configured")
	}
	return p.Get(found)
}
