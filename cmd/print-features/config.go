package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v2"

	"github.com/ozontech/seq-features/consts"
)

// Config describes the auxiliary feature sources queried for every primary feature.
//
//	lookahead: 5000
//	sources:
//	  - name: genes
//	    path: /data/genes.bed
//	  - name: repeats
//	    path: /data/repeats.tsv
//	    codec: table
//	    lookahead: 100
type Config struct {
	Lookahead int64          `yaml:"lookahead"`
	Sources   []SourceConfig `yaml:"sources"`
}

type SourceConfig struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`
	Codec string `yaml:"codec"`
	// Lookahead overrides Config.Lookahead for the source.
	Lookahead *int64 `yaml:"lookahead"`
}

func defaultConfig() Config {
	return Config{Lookahead: consts.DefaultQueryLookaheadBases}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("can't read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("can't parse config %s: %w", path, err)
	}
	return cfg, nil
}

// addAux adds sources given as name=path pairs, ordered by name.
func (c *Config) addAux(aux map[string]string) {
	names := make([]string, 0, len(aux))
	for name := range aux {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		c.Sources = append(c.Sources, SourceConfig{Name: name, Path: aux[name]})
	}
}

func (c *Config) validate() error {
	if c.Lookahead < 0 {
		return fmt.Errorf("negative lookahead %d", c.Lookahead)
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Path == "" {
			return fmt.Errorf("source %d has no path", i)
		}
		if s.Name == "" {
			s.Name = filepath.Base(s.Path)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if s.Lookahead != nil && *s.Lookahead < 0 {
			return fmt.Errorf("negative lookahead %d of source %q", *s.Lookahead, s.Name)
		}
	}
	return nil
}

func (s SourceConfig) lookahead(def int64) int64 {
	if s.Lookahead != nil {
		return *s.Lookahead
	}
	return def
}
