package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a TOML, YAML or JSON config file into flat environment
// style keys. Nested tables are joined with underscores, so
//
//	server:
//	  port: 9000
//
// becomes SERVER_PORT=9000. Lists become comma separated values, except
// data.date_layouts which uses "|".
func LoadFile(path string) (map[string]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var raw map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
		raw = tree.ToMap()
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	out := make(map[string]string)
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(k))
		if prefix != "" {
			key = prefix + "_" + key
		}

		switch v := m[k].(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, listSeparator(key))
		case []string:
			out[key] = strings.Join(v, listSeparator(key))
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

func listSeparator(key string) string {
	if key == "DATA_DATE_LAYOUTS" {
		return "|"
	}
	return ","
}
