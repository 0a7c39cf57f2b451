package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/bargo"
	"github.com/MeKo-Tech/bargo/internal/testutil"
)

// TestContext holds the state for integration tests. One context lives
// for one scenario; step definitions hang off it as methods.
type TestContext struct {
	// Library call state. Exactly one of Result, Results and Pages is
	// meaningful after a decode step, depending on its shape.
	LastResult  *bargo.Result
	LastResults []bargo.Result
	LastPages   []bargo.PageResult
	LastImage   []byte
	LastError   error

	// Command execution state
	LastCommand  string
	LastOutput   string
	LastExitCode int

	// Test environment
	WorkingDir string
	TempDir    string

	// Fixtures registered by Given steps, logical name to path
	Fixtures map[string]string

	// HTTP server state
	HTTPServer         *httptest.Server
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	// Test artifacts
	CreatedFiles       []string
	CreatedDirectories []string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	workingDir, err := testutil.GetProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to locate project root: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "bargo-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		WorkingDir:         workingDir,
		TempDir:            tempDir,
		Fixtures:           map[string]string{},
		CreatedFiles:       []string{},
		CreatedDirectories: []string{},
	}

	return ctx, nil
}

// Cleanup removes all temporary files and directories created during
// tests and shuts the test server down.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}

	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove file %s: %w", file, err))
		}
	}

	for _, dir := range testCtx.CreatedDirectories {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove directory %s: %w", dir, err))
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}

	return nil
}

// ResetCallState clears the outcome of the previous library call so a
// scenario with several When steps cannot see stale results.
func (testCtx *TestContext) ResetCallState() {
	testCtx.LastResult = nil
	testCtx.LastResults = nil
	testCtx.LastPages = nil
	testCtx.LastImage = nil
	testCtx.LastError = nil
}

// AddFixture registers a file under a logical name for later steps.
func (testCtx *TestContext) AddFixture(name, path string) {
	testCtx.Fixtures[name] = path
}

// FixturePath resolves a logical fixture name to its path. Names no
// Given step registered resolve into the temp directory, so steps that
// exercise missing-file behavior get a path that genuinely lacks a file.
func (testCtx *TestContext) FixturePath(name string) string {
	if path, ok := testCtx.Fixtures[name]; ok {
		return path
	}
	return filepath.Join(testCtx.TempDir, name)
}

// TrackFile adds a file to be cleaned up after tests.
func (testCtx *TestContext) TrackFile(filename string) {
	absPath := filename
	if !filepath.IsAbs(filename) {
		absPath = filepath.Join(testCtx.WorkingDir, filename)
	}
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, absPath)
}

// TrackDirectory adds a directory to be cleaned up after tests.
func (testCtx *TestContext) TrackDirectory(dirname string) {
	absPath := dirname
	if !filepath.IsAbs(dirname) {
		absPath = filepath.Join(testCtx.WorkingDir, dirname)
	}
	testCtx.CreatedDirectories = append(testCtx.CreatedDirectories, absPath)
}

// GetTempFile returns a path to a temporary file.
func (testCtx *TestContext) GetTempFile(suffix string) string {
	return filepath.Join(testCtx.TempDir, fmt.Sprintf("test-%d%s", time.Now().UnixNano(), suffix))
}

// GetTempDir returns a path to a temporary directory.
func (testCtx *TestContext) GetTempDir(prefix string) string {
	dirPath := filepath.Join(testCtx.TempDir, fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()))
	testCtx.TrackDirectory(dirPath)
	return dirPath
}

// ServerURL returns the base URL of the running test server.
func (testCtx *TestContext) ServerURL() string {
	if testCtx.HTTPServer == nil {
		return ""
	}
	return testCtx.HTTPServer.URL
}
