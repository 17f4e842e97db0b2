package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestFeed 描述一个本地 feed 文件及其来源地址
type ManifestFeed struct {
	SourceURL string `toml:"source_url"`
	Path      string `toml:"path"`
}

// Manifest 是 ingest 命令批量导入时使用的清单
type Manifest struct {
	Feeds []ManifestFeed `toml:"feeds"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest file: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing manifest file: %w", err)
	}

	if len(m.Feeds) == 0 {
		return nil, errors.New("manifest contains no feeds")
	}
	for i := range m.Feeds {
		m.Feeds[i].SourceURL = strings.TrimSpace(m.Feeds[i].SourceURL)
		m.Feeds[i].Path = strings.TrimSpace(m.Feeds[i].Path)
		if m.Feeds[i].SourceURL == "" {
			return nil, fmt.Errorf("feeds[%d]: source_url is required", i)
		}
		if m.Feeds[i].Path == "" {
			return nil, fmt.Errorf("feeds[%d]: path is required", i)
		}
	}

	return &m, nil
}
