package packages

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Loader produces a full package-name to UID snapshot.
type Loader interface {
	Load(ctx context.Context) (map[string]int, error)
}

// FileLoader reads an Android style packages.list
// ("<name> <uid> <debuggable> <data dir> ...").
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) (map[string]int, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open package list: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f)
}

// Parse reads packages.list content. Lines without a numeric uid are skipped.
func Parse(ctx context.Context, r io.Reader) (map[string]int, error) {
	result := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		uid, err := strconv.Atoi(fields[1])
		if err != nil || uid < 0 {
			continue
		}
		result[fields[0]] = uid
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read package list: %w", err)
	}
	return result, nil
}

// StaticLoader serves a fixed table; used when no package list is configured.
type StaticLoader map[string]int

func (l StaticLoader) Load(context.Context) (map[string]int, error) {
	out := make(map[string]int, len(l))
	for name, uid := range l {
		out[name] = uid
	}
	return out, nil
}
