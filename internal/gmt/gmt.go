// Package gmt reads gene set libraries in GMT format and the plain-text
// analyte and ranked lists used by the command line.
package gmt

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/gestalt/internal/geneset"
)

// ErrMalformedLine is returned for a line that cannot be parsed.
var ErrMalformedLine = errors.New("malformed line")

// open opens path for reading, transparently decompressing .gz files.
func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	return scanner
}

// Parse reads a GMT library: one set per line as id, description/URL and
// member genes, tab separated. Blank lines are skipped and empty member
// fields dropped.
func Parse(r io.Reader) ([]geneset.Item, error) {
	var items []geneset.Item
	seen := make(map[string]bool)
	scanner := newScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" {
			return nil, fmt.Errorf("line %d: %w: want id and description", lineNum, ErrMalformedLine)
		}
		id := fields[0]
		if seen[id] {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, id, geneset.ErrDuplicateSet)
		}
		seen[id] = true

		parts := make([]string, 0, len(fields)-2)
		for _, g := range fields[2:] {
			if g = strings.TrimSpace(g); g != "" {
				parts = append(parts, g)
			}
		}
		items = append(items, geneset.Item{ID: id, URL: fields[1], Parts: parts})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gmt: %w", err)
	}
	return items, nil
}

// Load reads a GMT library from path.
func Load(path string) (*geneset.Collection, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	items, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return geneset.FromItems(items)
}

// ParseList reads one analyte per line, taking the first tab-separated
// field. Blank lines and lines starting with '#' are skipped.
func ParseList(r io.Reader) ([]string, error) {
	var out []string
	scanner := newScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			line = line[:i]
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return out, nil
}

// LoadList reads an analyte list from path.
func LoadList(path string) ([]string, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseList(rc)
}

// ParseRanked reads "analyte<TAB>score" lines. Blank lines and lines
// starting with '#' are skipped.
func ParseRanked(r io.Reader) ([]string, []float64, error) {
	var analytes []string
	var ranks []float64
	scanner := newScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("line %d: %w: want analyte and score", lineNum, ErrMalformedLine)
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: parse score %q: %w", lineNum, fields[1], err)
		}
		analytes = append(analytes, fields[0])
		ranks = append(ranks, score)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read ranked list: %w", err)
	}
	return analytes, ranks, nil
}

// LoadRanked reads a ranked list from path.
func LoadRanked(path string) ([]string, []float64, error) {
	rc, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	analytes, ranks, err := ParseRanked(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return analytes, ranks, nil
}
