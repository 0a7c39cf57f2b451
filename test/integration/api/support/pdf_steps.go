package support

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/bargo"
	"github.com/MeKo-Tech/bargo/internal/testutil"
)

// writePDFFixture renders each text as a QR page image and binds them
// into one document, one symbol per page. Empty texts become blank
// pages.
func (testCtx *TestContext) writePDFFixture(name string, texts []string) error {
	dir := testCtx.GetTempDir("pdf-pages")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}

	var imgPaths []string
	for i, text := range texts {
		imgPath := filepath.Join(dir, fmt.Sprintf("page%02d.png", i+1))
		if text == "" {
			if err := testutil.SavePNG(testutil.NewBlankImage(240, 240), imgPath); err != nil {
				return fmt.Errorf("failed to write blank page: %w", err)
			}
		} else {
			_, err := bargo.Encode(text, &bargo.EncodeOptions{
				Width:       240,
				Height:      240,
				ImageFormat: "png",
				OutputFile:  imgPath,
			})
			if err != nil {
				return fmt.Errorf("failed to render page symbol: %w", err)
			}
		}
		imgPaths = append(imgPaths, imgPath)
	}

	pdfPath := filepath.Join(dir, "document.pdf")
	if err := api.ImportImagesFile(imgPaths, pdfPath, nil, nil); err != nil {
		return fmt.Errorf("failed to bind PDF: %w", err)
	}

	testCtx.AddFixture(name, pdfPath)
	return nil
}

// aPDFFileWithQRCodePages creates a two-page PDF fixture.
func (testCtx *TestContext) aPDFFileWithQRCodePages(name, textOne, textTwo string) error {
	return testCtx.writePDFFixture(name, []string{textOne, textTwo})
}

// aPDFFileWithABlankPageAndAQRCodePage creates a PDF whose first page
// holds no symbol.
func (testCtx *TestContext) aPDFFileWithABlankPageAndAQRCodePage(name, text string) error {
	return testCtx.writePDFFixture(name, []string{"", text})
}

// iDecodeThePDF scans every page of the document.
func (testCtx *TestContext) iDecodeThePDF(name string) error {
	testCtx.ResetCallState()
	testCtx.LastPages, testCtx.LastError = bargo.DecodePDF(testCtx.FixturePath(name), "", nil)
	return nil
}

// iDecodePagesOfThePDF scans a page selection of the document.
func (testCtx *TestContext) iDecodePagesOfThePDF(pages, name string) error {
	testCtx.ResetCallState()
	testCtx.LastPages, testCtx.LastError = bargo.DecodePDF(testCtx.FixturePath(name), pages, nil)
	return nil
}

// thePageListShouldContainPages verifies how many pages were scanned.
func (testCtx *TestContext) thePageListShouldContainPages(count int) error {
	if testCtx.LastError != nil {
		return fmt.Errorf("expected success, got error: %v", testCtx.LastError)
	}
	if len(testCtx.LastPages) != count {
		return fmt.Errorf("expected %d pages, got %d", count, len(testCtx.LastPages))
	}
	return nil
}

// pageOf finds the entry for a 1-based page number.
func (testCtx *TestContext) pageOf(number int) (*bargo.PageResult, error) {
	for i := range testCtx.LastPages {
		if testCtx.LastPages[i].Page == number {
			return &testCtx.LastPages[i], nil
		}
	}
	return nil, fmt.Errorf("no entry for page %d in %d scanned pages", number, len(testCtx.LastPages))
}

// pageShouldContainTheText verifies a payload was read from a page.
func (testCtx *TestContext) pageShouldContainTheText(number int, text string) error {
	page, err := testCtx.pageOf(number)
	if err != nil {
		return err
	}
	for _, result := range page.Results {
		if result.Text == text {
			return nil
		}
	}
	return fmt.Errorf("page %d does not contain %q (%d results)", number, text, len(page.Results))
}

// pageShouldReportNoBarcodes verifies a page scanned clean. The page
// still appears in the list, with an empty but non-nil result list.
func (testCtx *TestContext) pageShouldReportNoBarcodes(number int) error {
	page, err := testCtx.pageOf(number)
	if err != nil {
		return err
	}
	if page.Results == nil {
		return fmt.Errorf("page %d has a nil result list", number)
	}
	if len(page.Results) != 0 {
		return fmt.Errorf("expected no barcodes on page %d, got %d", number, len(page.Results))
	}
	return nil
}

// RegisterPDFSteps registers all PDF document step definitions.
func (testCtx *TestContext) RegisterPDFSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a PDF file "([^"]*)" with QR code pages "([^"]*)" and "([^"]*)"$`,
		testCtx.aPDFFileWithQRCodePages)
	sc.Step(`^a PDF file "([^"]*)" with a blank page and a QR code page "([^"]*)"$`,
		testCtx.aPDFFileWithABlankPageAndAQRCodePage)
	sc.Step(`^I decode the PDF "([^"]*)"$`, testCtx.iDecodeThePDF)
	sc.Step(`^I decode pages "([^"]*)" of the PDF "([^"]*)"$`, testCtx.iDecodePagesOfThePDF)
	sc.Step(`^the page list should contain (\d+) pages?$`, testCtx.thePageListShouldContainPages)
	sc.Step(`^page (\d+) should contain the text "([^"]*)"$`, testCtx.pageShouldContainTheText)
	sc.Step(`^page (\d+) should report no barcodes$`, testCtx.pageShouldReportNoBarcodes)
}
