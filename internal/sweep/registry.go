package sweep

import (
	"sort"
	"sync"
)

// Registry holds the benchmarks available to a process. It is populated
// explicitly at startup.
type Registry struct {
	mu         sync.RWMutex
	benchmarks map[string]*Benchmark
}

// BenchmarkInfo is a summary of a registered benchmark.
type BenchmarkInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Inputs      []string `json:"inputs"`
	Results     []string `json:"results"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{benchmarks: make(map[string]*Benchmark)}
}

// Register adds a benchmark, replacing any with the same name.
func (r *Registry) Register(b *Benchmark) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.benchmarks[b.Name] = b
}

// Get retrieves a benchmark by name.
func (r *Registry) Get(name string) (*Benchmark, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.benchmarks[name]
	return b, ok
}

// List returns summaries of all registered benchmarks sorted by name.
func (r *Registry) List() []BenchmarkInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]BenchmarkInfo, 0, len(r.benchmarks))
	for _, b := range r.benchmarks {
		info := BenchmarkInfo{Name: b.Name, Version: b.Version, Description: b.Description}
		for _, v := range b.Inputs {
			info.Inputs = append(info.Inputs, v.Name)
		}
		for _, rv := range b.Results {
			info.Results = append(info.Results, rv.Name)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
