// Package pdf pulls embedded raster images out of PDF documents so the
// barcode pipeline can scan them page by page.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractImages extracts the embedded images of a PDF, grouped by
// 1-based page number. pageRange limits extraction to the listed pages
// ("3", "1-5", "1,4-6"); empty means all pages. Pages without images
// have no map entry.
func ExtractImages(filename, pageRange string) (map[int][]image.Image, error) {
	pages, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "bargo-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	// Extracted file names derive from the source file's base name.
	// Staging the document as page.pdf pins them to the page_<n>_ form
	// the collector parses.
	src, err := os.ReadFile(filename) //nolint:gosec // G304: reading a caller-provided document path is the point
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	staged := filepath.Join(tempDir, "page.pdf")
	if err := os.WriteFile(staged, src, 0o600); err != nil {
		return nil, fmt.Errorf("stage %s: %w", filename, err)
	}

	var selected []string
	for _, p := range pages {
		selected = append(selected, strconv.Itoa(p))
	}
	if err := api.ExtractImagesFile(staged, tempDir, selected, nil); err != nil {
		return nil, fmt.Errorf("extract images from %s: %w", filename, err)
	}

	return collectImages(tempDir)
}

// Pages returns the keys of an extraction result in ascending order.
func Pages(byPage map[int][]image.Image) []int {
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// collectImages walks an extraction directory and decodes every page
// image, keyed by the page number embedded in the filename. Files that
// do not follow the page_<n>_... layout or fail to decode are skipped.
func collectImages(dir string) (map[int][]image.Image, error) {
	byPage := make(map[int][]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		page, err := pageFromFilename(info.Name())
		if err != nil {
			return nil
		}
		img, err := decodeFile(path)
		if err != nil {
			return nil
		}
		byPage[page] = append(byPage[page], img)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect extracted images: %w", err)
	}
	return byPage, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: paths come from our own temp dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	return img, err
}

// pageFromFilename reads the page number out of an extracted image
// name such as "page_3_Im1.png".
func pageFromFilename(name string) (int, error) {
	rest, ok := strings.CutPrefix(name, "page_")
	if !ok {
		return 0, errors.New("not a page image")
	}
	num, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, errors.New("not a page image")
	}
	page, err := strconv.Atoi(num)
	if err != nil || page < 1 {
		return 0, errors.New("bad page number")
	}
	return page, nil
}

// ParsePageRange expands a page selection such as "3", "1-5" or
// "1,4-6" into the listed pages, sorted and deduplicated. Empty input
// selects all pages and returns nil.
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	for _, token := range strings.Split(pageRange, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		start, end, err := parseRangeToken(token)
		if err != nil {
			return nil, err
		}
		for p := start; p <= end; p++ {
			seen[p] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

// parseRangeToken parses one selection token, either a single page
// ("3") or an inclusive range ("1-5").
func parseRangeToken(token string) (start, end int, err error) {
	if first, second, ok := strings.Cut(token, "-"); ok {
		start, err = parsePageNumber(first)
		if err != nil {
			return 0, 0, err
		}
		end, err = parsePageNumber(second)
		if err != nil {
			return 0, 0, err
		}
		if start > end {
			return 0, 0, fmt.Errorf("backwards range %q", token)
		}
		return start, end, nil
	}
	start, err = parsePageNumber(token)
	return start, start, err
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page number %d out of range", n)
	}
	return n, nil
}
