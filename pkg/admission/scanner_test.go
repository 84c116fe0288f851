package admission

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varlog/logsift/pkg/api"
)

// writeFixtureTree lays out a miniature workspace like the ones the
// gate sees in production: real logs, log-named files without
// extensions, date-suffixed rotations, ambiguous text, and binaries
// masquerading as logs.
func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string][]byte{
		"logs/app.log":           []byte("2024-01-01 12:00:00 INFO Application started\n"),
		"logs/syslog":            []byte("Jan  1 12:00:00 server app[123]: Started\n"),
		"logs/messages":          []byte("Jan  1 12:00:00 kernel: Linux version 6.1.0\n"),
		"logs/access.2024-01-01": []byte("127.0.0.1 - - [01/Jan/2024] \"GET /api\" 200\n"),
		"logs/debug.20250103":    []byte("[2025-01-03 10:00:00] DEBUG: Initializing\n"),
		"mixed/stdout":           []byte("Container stdout log\n"),
		"mixed/mylog.txt":        []byte("Custom log file with txt extension\n"),
		"mixed/fake.log":         append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("not really a log")...),
		"data/table.csv":         []byte("id,name,value\n1,Item1,100\n"),
		"data/notes.md":          []byte("# Notes\n"),
		"data/binary.unknownext": {0x4D, 0x5A, 0x90, 0x00},
		"data/plain.unknownext":  []byte("just some text\n"),
	}

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, content, 0644))
	}
	return root
}

func newTestScanner(t *testing.T, cfg api.PolicyConfig) *Scanner {
	t.Helper()
	filter := newTestFilter(t, cfg, nil)
	return NewScanner(filter, &api.ScanConfig{Workers: 4, SampleSize: 64})
}

func TestScanner_Scan(t *testing.T) {
	root := writeFixtureTree(t)
	scanner := newTestScanner(t, api.PolicyConfig{
		Whitelist:      []string{"csv", "json"},
		Blacklist:      []string{"md"},
		DefaultVerdict: api.DecisionReject,
	})

	report, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.Results, 12)
	assert.NotEmpty(t, report.ScanID)
	assert.Equal(t, 0, report.Errored)

	byPath := make(map[string]Result, len(report.Results))
	for _, res := range report.Results {
		rel, err := filepath.Rel(root, res.Path)
		require.NoError(t, err)
		byPath[filepath.ToSlash(rel)] = res
	}

	tests := []struct {
		rel      string
		decision api.Decision
		layer    api.Layer
	}{
		{"logs/app.log", api.DecisionAccept, api.LayerPattern},
		{"logs/syslog", api.DecisionAccept, api.LayerPattern},
		{"logs/messages", api.DecisionAccept, api.LayerPattern},
		{"logs/access.2024-01-01", api.DecisionAccept, api.LayerPattern},
		{"logs/debug.20250103", api.DecisionAccept, api.LayerPattern},
		{"mixed/stdout", api.DecisionAccept, api.LayerPattern},
		{"mixed/mylog.txt", api.DecisionAccept, api.LayerPattern},
		{"mixed/fake.log", api.DecisionReject, api.LayerSignature},
		{"data/table.csv", api.DecisionAccept, api.LayerPolicy},
		{"data/notes.md", api.DecisionReject, api.LayerPolicy},
		{"data/binary.unknownext", api.DecisionReject, api.LayerSignature},
		{"data/plain.unknownext", api.DecisionReject, api.LayerDefault},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			res, ok := byPath[tt.rel]
			require.True(t, ok, "missing result for %s", tt.rel)
			require.NoError(t, res.Err)
			assert.Equal(t, tt.decision, res.Verdict.Decision)
			assert.Equal(t, tt.layer, res.Verdict.Layer)
		})
	}

	assert.Equal(t, 8, report.Accepted)
	assert.Equal(t, 4, report.Rejected)
}

func TestScanner_Scan_SortedResults(t *testing.T) {
	root := writeFixtureTree(t)
	scanner := newTestScanner(t, api.DefaultPolicy())

	report, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)

	for i := 1; i < len(report.Results); i++ {
		assert.Less(t, report.Results[i-1].Path, report.Results[i].Path)
	}
}

func TestScanner_Scan_EmptyDir(t *testing.T) {
	scanner := newTestScanner(t, api.DefaultPolicy())

	report, err := scanner.Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.Accepted)
	assert.Equal(t, 0, report.Rejected)
}

func TestScanner_Scan_MissingRoot(t *testing.T) {
	scanner := newTestScanner(t, api.DefaultPolicy())

	_, err := scanner.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrWalkTree)
}

func TestScanner_Scan_Cancelled(t *testing.T) {
	root := writeFixtureTree(t)
	scanner := newTestScanner(t, api.DefaultPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scanner.Scan(ctx, root)
	require.Error(t, err)
}

func TestScanner_SkipsNonRegularFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.log"), []byte("x\n"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.log"), filepath.Join(root, "link.log")))

	scanner := newTestScanner(t, api.DefaultPolicy())
	report, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, filepath.Join(root, "real.log"), report.Results[0].Path)
}

func TestReadHead_ShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny")
	require.NoError(t, os.WriteFile(path, []byte("ab"), 0644))

	sample, err := readHead(path, 512)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), sample)
}

func TestReadHead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	sample, err := readHead(path, 512)
	require.NoError(t, err)
	assert.Empty(t, sample)
}
