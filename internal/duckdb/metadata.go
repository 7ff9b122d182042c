package duckdb

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// cacheMeta is the key=value sidecar describing what a cache file was built from.
type cacheMeta map[string]string

func (m cacheMeta) setFile(prefix string, fp FileFingerprint) {
	m[prefix+"_size"] = strconv.FormatInt(fp.Size, 10)
	m[prefix+"_modtime"] = fp.ModTime.UTC().Format(time.RFC3339Nano)
}

// matches reports whether every key of want has the same value in m.
func (m cacheMeta) matches(want cacheMeta) bool {
	for k, v := range want {
		if m[k] != v {
			return false
		}
	}
	return true
}

func writeMeta(path string, m cacheMeta) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+2)
	for _, k := range keys {
		lines = append(lines, k+"="+m[k])
	}
	lines = append(lines, "created_at="+time.Now().UTC().Format(time.RFC3339), "")
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta := make(cacheMeta)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
