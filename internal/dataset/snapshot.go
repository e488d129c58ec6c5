package dataset

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"superstore-dashboard/internal/models"
)

const snapshotVersion = "v1"

// snapshot is the gob-encoded parse result of a local source.
type snapshot struct {
	Source  string
	SavedAt time.Time
	Records []models.Record
	Stats   LoadStats
}

func snapshotPath(dir, source string, opts DecodeOptions) string {
	policy := "keep"
	if opts.DropInvalidDates {
		policy = "drop"
	}
	h := fnv.New32a()
	h.Write([]byte(strings.Join(opts.DateLayouts, "|")))
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(source)
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%08x_%s.gob", name, policy, h.Sum32(), snapshotVersion))
}

func saveSnapshot(path string, snap snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snap)
}

func loadSnapshot(path string) (*snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
