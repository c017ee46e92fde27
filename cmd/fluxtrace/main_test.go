package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFlatFloorMesh(t *testing.T, dir string) string {
	t.Helper()
	doc := `{
		"vertices": [[-10,-10,0],[10,-10,0],[10,10,0],[-10,10,0]],
		"triangles": [[0,1,2],[0,2,3]],
		"sticking": [1.0, 1.0],
		"relevant": [true, true]
	}`
	path := filepath.Join(dir, "floor.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture mesh: %v", err)
	}
	return path
}

// writeSmallConfig overlays a handful of pilot/exposed-area sizes small
// enough for a test run, so these CLI tests don't pay the full
// production-sized defaults.yaml cost just to exercise --outfile handling.
func writeSmallConfig(t *testing.T, dir string) string {
	t.Helper()
	doc := `
importance:
  n_pilot: 32
  n_relevant: 8
  max_mixture_components: 2
exposed_area:
  n_ea: 16
`
	path := filepath.Join(dir, "small.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}
	return path
}

// TestRunRequiresInfileButNotOutfile covers the required half of the
// flag contract: without --infile, run exits with a usage error. That
// --outfile/-o is optional (the original's OUTPUT_FILE non-mandatory clo
// option, original_source main_rt.cpp:51-53) is covered by
// TestRunWithoutOutfileSkipsWritingAnyFile.
func TestRunRequiresInfileButNotOutfile(t *testing.T) {
	code := run([]string{"--triangles"})
	assert.Equal(t, exitUsageError, code, "missing --infile should fail")
}

// TestRunWithoutOutfileSkipsWritingAnyFile exercises the guarded write
// step (main_rt.cpp:222: "if (!outfilename.empty())"): when --outfile is
// omitted, the trace still runs to completion and exits 0, but no file is
// written anywhere.
func TestRunWithoutOutfileSkipsWritingAnyFile(t *testing.T) {
	dir := t.TempDir()
	infile := writeFlatFloorMesh(t, dir)
	cfgPath := writeSmallConfig(t, dir)

	code := run([]string{"--infile", infile, "--triangles", "--number-of-rays", "8", "--config", cfgPath})
	assert.Equal(t, exitOK, code)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 2, "only the input fixture and config should exist, no output written")
}

// TestRunAppendsVTPExtensionWhenMissing covers main_rt.cpp:224-226:
// "Appending .vtp to the given file name" when outfile's extension isn't
// already .vtp.
func TestRunAppendsVTPExtensionWhenMissing(t *testing.T) {
	dir := t.TempDir()
	infile := writeFlatFloorMesh(t, dir)
	cfgPath := writeSmallConfig(t, dir)
	outfile := filepath.Join(dir, "result")

	code := run([]string{"--infile", infile, "--triangles", "--number-of-rays", "8", "--config", cfgPath, "--outfile", outfile})
	assert.Equal(t, exitOK, code)

	assert.FileExists(t, outfile+".vtp")
	assert.NoFileExists(t, outfile)
}

// TestRunLeavesAnExplicitVTPExtensionAlone ensures ensureVTPExtension is
// idempotent on a filename that already ends in .vtp.
func TestRunLeavesAnExplicitVTPExtensionAlone(t *testing.T) {
	dir := t.TempDir()
	infile := writeFlatFloorMesh(t, dir)
	cfgPath := writeSmallConfig(t, dir)
	outfile := filepath.Join(dir, "result.vtp")

	code := run([]string{"--infile", infile, "--triangles", "--number-of-rays", "8", "--config", cfgPath, "--outfile", outfile})
	assert.Equal(t, exitOK, code)

	assert.FileExists(t, outfile)
	assert.NoFileExists(t, outfile+".vtp")
}

func TestEnsureVTPExtension(t *testing.T) {
	assert.Equal(t, "result.vtp", ensureVTPExtension("result"))
	assert.Equal(t, "result.vtp", ensureVTPExtension("result.vtp"))
	assert.Equal(t, "result.out.vtp", ensureVTPExtension("result.out"))
}
