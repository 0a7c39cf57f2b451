package support

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/bargo"
	"github.com/MeKo-Tech/bargo/internal/imgio"
	"github.com/MeKo-Tech/bargo/internal/testutil"
)

// writeBarcodeFixture renders text as a barcode image file and
// registers it under its logical name.
func (testCtx *TestContext) writeBarcodeFixture(name, formatName, text string) error {
	format, err := bargo.ParseFormat(formatName)
	if err != nil {
		return err
	}

	path := testCtx.GetTempFile("-" + name)
	if _, err := bargo.Encode(text, &bargo.EncodeOptions{
		Format:      format,
		ImageFormat: "png",
		OutputFile:  path,
	}); err != nil {
		return fmt.Errorf("failed to render fixture %s: %w", name, err)
	}

	testCtx.AddFixture(name, path)
	return nil
}

// anImageFileContainingAQRCodeWithText creates a QR code fixture.
func (testCtx *TestContext) anImageFileContainingAQRCodeWithText(name, text string) error {
	return testCtx.writeBarcodeFixture(name, "qr", text)
}

// anImageFileContainingABarcodeWithText creates a fixture in the named
// symbology.
func (testCtx *TestContext) anImageFileContainingABarcodeWithText(name, formatName, text string) error {
	return testCtx.writeBarcodeFixture(name, formatName, text)
}

// aBlankImageFile creates an all-white image with no barcode in it.
func (testCtx *TestContext) aBlankImageFile(name string) error {
	return testCtx.savePNGFixture(name, testutil.NewBlankImage(120, 120))
}

// anImageFileContainingQRCodesWithTexts creates one image holding two
// QR codes side by side.
func (testCtx *TestContext) anImageFileContainingQRCodesWithTexts(name, first, second string) error {
	img, err := testutil.NewSymbolPairImage(first, second)
	if err != nil {
		return err
	}
	return testCtx.savePNGFixture(name, img)
}

// savePNGFixture writes an image to the temp directory and registers it.
func (testCtx *TestContext) savePNGFixture(name string, img image.Image) error {
	path := testCtx.GetTempFile("-" + name)
	if err := testutil.SavePNG(img, path); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	testCtx.AddFixture(name, path)
	return nil
}

// formatFromStep resolves a format name from a feature file. Names the
// parser does not know pass through as raw literals so the library's
// own validation reports them.
func formatFromStep(name string) bargo.Format {
	f, err := bargo.ParseFormat(name)
	if err != nil {
		return bargo.Format(strings.ToUpper(name))
	}
	return f
}

// iDecodeTheFile decodes a single barcode from a fixture file.
func (testCtx *TestContext) iDecodeTheFile(name string) error {
	testCtx.ResetCallState()
	testCtx.LastResult, testCtx.LastError = bargo.Decode(testCtx.FixturePath(name), nil)
	return nil
}

// iDecodeTheFileAsRawBase64 delivers the fixture bytes as a bare
// base64 string instead of a path.
func (testCtx *TestContext) iDecodeTheFileAsRawBase64(name string) error {
	data, err := os.ReadFile(testCtx.FixturePath(name)) //nolint:gosec // G304: controlled test path
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	testCtx.ResetCallState()
	testCtx.LastResult, testCtx.LastError = bargo.Decode(base64.StdEncoding.EncodeToString(data), nil)
	return nil
}

// iDecodeTheFileAsADataURL delivers the fixture bytes as a data URL.
func (testCtx *TestContext) iDecodeTheFileAsADataURL(name string) error {
	data, err := os.ReadFile(testCtx.FixturePath(name)) //nolint:gosec // G304: controlled test path
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	input := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	testCtx.ResetCallState()
	testCtx.LastResult, testCtx.LastError = bargo.Decode(input, nil)
	return nil
}

// iDecodeAllBarcodesInTheFile decodes every barcode in a fixture file.
// The multi reader needs the extra passes to separate neighboring
// symbols, so the scan always tries harder.
func (testCtx *TestContext) iDecodeAllBarcodesInTheFile(name string) error {
	testCtx.ResetCallState()
	testCtx.LastResults, testCtx.LastError = bargo.DecodeAll(
		testCtx.FixturePath(name),
		&bargo.DecodeOptions{TryHarder: true},
	)
	return nil
}

// iDecodeTheFileRestrictedToFormat decodes with a symbology filter.
func (testCtx *TestContext) iDecodeTheFileRestrictedToFormat(name, formatName string) error {
	opts := &bargo.DecodeOptions{Formats: []bargo.Format{formatFromStep(formatName)}}
	testCtx.ResetCallState()
	testCtx.LastResult, testCtx.LastError = bargo.Decode(testCtx.FixturePath(name), opts)
	return nil
}

// iDecodeTheInput decodes a literal input string, exercising input
// classification on whatever the feature file wrote.
func (testCtx *TestContext) iDecodeTheInput(input string) error {
	testCtx.ResetCallState()
	testCtx.LastResult, testCtx.LastError = bargo.Decode(input, nil)
	return nil
}

// iEncodeTheText renders text with default options.
func (testCtx *TestContext) iEncodeTheText(text string) error {
	testCtx.ResetCallState()
	testCtx.LastImage, testCtx.LastError = bargo.Encode(text, nil)
	return nil
}

// iEncodeTheTextAsFormat renders text in the named symbology.
func (testCtx *TestContext) iEncodeTheTextAsFormat(text, formatName string) error {
	opts := &bargo.EncodeOptions{Format: formatFromStep(formatName)}
	testCtx.ResetCallState()
	testCtx.LastImage, testCtx.LastError = bargo.Encode(text, opts)
	return nil
}

// iEncodeTheTextToTheFile renders text into a file with the given
// image codec.
func (testCtx *TestContext) iEncodeTheTextToTheFile(text, name, imageFormat string) error {
	path := testCtx.GetTempFile("-" + name)
	opts := &bargo.EncodeOptions{ImageFormat: imageFormat, OutputFile: path}
	testCtx.ResetCallState()
	testCtx.LastImage, testCtx.LastError = bargo.Encode(text, opts)
	if testCtx.LastError == nil {
		testCtx.AddFixture(name, path)
	}
	return nil
}

// theCallShouldSucceed verifies the last library call returned no error.
func (testCtx *TestContext) theCallShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("call failed: %v", testCtx.LastError)
	}
	return nil
}

// theCallShouldFailWithKind verifies the last call failed with the
// named error kind.
func (testCtx *TestContext) theCallShouldFailWithKind(kindName string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected a %s error, but the call succeeded", kindName)
	}

	var sentinel error
	switch kindName {
	case "input":
		sentinel = bargo.ErrInput
	case "options":
		sentinel = bargo.ErrOptions
	case "recognition":
		sentinel = bargo.ErrRecognition
	case "generation":
		sentinel = bargo.ErrGeneration
	case "io":
		sentinel = bargo.ErrIO
	default:
		return fmt.Errorf("unknown error kind in step: %s", kindName)
	}

	if !errors.Is(testCtx.LastError, sentinel) {
		return fmt.Errorf("expected a %s error, got: %v", kindName, testCtx.LastError)
	}
	return nil
}

// theDecodedTextShouldBe verifies the single-decode payload.
func (testCtx *TestContext) theDecodedTextShouldBe(text string) error {
	if testCtx.LastError != nil {
		return fmt.Errorf("decode failed: %v", testCtx.LastError)
	}
	if testCtx.LastResult == nil {
		return fmt.Errorf("expected text %q, but no barcode was found", text)
	}
	if testCtx.LastResult.Text != text {
		return fmt.Errorf("expected text %q, got %q", text, testCtx.LastResult.Text)
	}
	return nil
}

// theDecodedFormatShouldBe verifies the single-decode symbology.
func (testCtx *TestContext) theDecodedFormatShouldBe(formatName string) error {
	if testCtx.LastResult == nil {
		return errors.New("no barcode was found")
	}
	if string(testCtx.LastResult.Format) != formatName {
		return fmt.Errorf("expected format %s, got %s", formatName, testCtx.LastResult.Format)
	}
	return nil
}

// noBarcodeShouldBeReported verifies the single-decode null outcome.
func (testCtx *TestContext) noBarcodeShouldBeReported() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("decode failed instead of reporting nothing: %v", testCtx.LastError)
	}
	if testCtx.LastResult != nil {
		return fmt.Errorf("expected no barcode, but found %q", testCtx.LastResult.Text)
	}
	return nil
}

// theResultListShouldBeEmptyButNotNull verifies the multi-decode shape
// for a barcode-free image.
func (testCtx *TestContext) theResultListShouldBeEmptyButNotNull() error {
	if testCtx.LastResults == nil {
		return errors.New("result list is nil, want an empty list")
	}
	if len(testCtx.LastResults) != 0 {
		return fmt.Errorf("expected an empty list, got %d results", len(testCtx.LastResults))
	}
	return nil
}

// theResultListShouldContainBarcodes verifies the multi-decode count.
func (testCtx *TestContext) theResultListShouldContainBarcodes(count int) error {
	if len(testCtx.LastResults) != count {
		return fmt.Errorf("expected %d barcodes, got %d", count, len(testCtx.LastResults))
	}
	return nil
}

// theDecodedTextsShouldInclude verifies one of the multi-decode payloads.
func (testCtx *TestContext) theDecodedTextsShouldInclude(text string) error {
	for _, r := range testCtx.LastResults {
		if r.Text == text {
			return nil
		}
	}
	return fmt.Errorf("no result carries text %q", text)
}

// theImageShouldBeEncodedAs verifies the codec of the last encode by
// its magic bytes.
func (testCtx *TestContext) theImageShouldBeEncodedAs(codec string) error {
	if len(testCtx.LastImage) == 0 {
		return errors.New("no image bytes were produced")
	}
	sniffed, ok := imgio.Sniff(testCtx.LastImage)
	if !ok {
		return errors.New("image bytes are not a known codec")
	}
	if sniffed != codec {
		return fmt.Errorf("expected %s bytes, got %s", codec, sniffed)
	}
	return nil
}

// decodingTheImageBytesShouldYield round-trips the last encode output.
func (testCtx *TestContext) decodingTheImageBytesShouldYield(text string) error {
	if len(testCtx.LastImage) == 0 {
		return errors.New("no image bytes were produced")
	}
	result, err := bargo.DecodeBytes(testCtx.LastImage, nil)
	if err != nil {
		return fmt.Errorf("round trip decode failed: %w", err)
	}
	if result == nil {
		return errors.New("round trip found no barcode")
	}
	if result.Text != text {
		return fmt.Errorf("round trip yielded %q, want %q", result.Text, text)
	}
	return nil
}

// theFileShouldExist verifies a fixture-named file exists on disk.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := testCtx.FixturePath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	return nil
}

// theFileShouldBeAImage verifies a file's codec by its magic bytes.
func (testCtx *TestContext) theFileShouldBeAImage(name, codec string) error {
	data, err := os.ReadFile(testCtx.FixturePath(name)) //nolint:gosec // G304: controlled test path
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	sniffed, ok := imgio.Sniff(data)
	if !ok {
		return fmt.Errorf("%s is not a known image codec", name)
	}
	if sniffed != codec {
		return fmt.Errorf("expected %s to be %s, got %s", name, codec, sniffed)
	}
	return nil
}

// registerFixtureSteps registers barcode fixture setup steps.
func (testCtx *TestContext) registerFixtureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an image file "([^"]*)" containing a QR code with text "([^"]*)"$`,
		testCtx.anImageFileContainingAQRCodeWithText)
	sc.Step(`^an image file "([^"]*)" containing a "([^"]*)" barcode with text "([^"]*)"$`,
		testCtx.anImageFileContainingABarcodeWithText)
	sc.Step(`^a blank image file "([^"]*)"$`, testCtx.aBlankImageFile)
	sc.Step(`^an image file "([^"]*)" containing QR codes with texts "([^"]*)" and "([^"]*)"$`,
		testCtx.anImageFileContainingQRCodesWithTexts)
}

// registerDecodeSteps registers library decode steps.
func (testCtx *TestContext) registerDecodeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I decode the file "([^"]*)"$`, testCtx.iDecodeTheFile)
	sc.Step(`^I decode the file "([^"]*)" as raw base64$`, testCtx.iDecodeTheFileAsRawBase64)
	sc.Step(`^I decode the file "([^"]*)" as a data URL$`, testCtx.iDecodeTheFileAsADataURL)
	sc.Step(`^I decode all barcodes in the file "([^"]*)"$`, testCtx.iDecodeAllBarcodesInTheFile)
	sc.Step(`^I decode the file "([^"]*)" restricted to format "([^"]*)"$`,
		testCtx.iDecodeTheFileRestrictedToFormat)
	sc.Step(`^I decode the input "([^"]*)"$`, testCtx.iDecodeTheInput)
}

// registerEncodeSteps registers library encode steps.
func (testCtx *TestContext) registerEncodeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I encode the text "([^"]*)"$`, testCtx.iEncodeTheText)
	sc.Step(`^I encode the text "([^"]*)" as format "([^"]*)"$`, testCtx.iEncodeTheTextAsFormat)
	sc.Step(`^I encode the text "([^"]*)" to the file "([^"]*)" as "([^"]*)"$`,
		testCtx.iEncodeTheTextToTheFile)
}

// registerOutcomeSteps registers library call verification steps.
func (testCtx *TestContext) registerOutcomeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the (?:decode|encode|call) should succeed$`, testCtx.theCallShouldSucceed)
	sc.Step(`^the (?:decode|encode|call) should fail with an? (input|options|recognition|generation|io) error$`,
		testCtx.theCallShouldFailWithKind)
	sc.Step(`^the decoded text should be "([^"]*)"$`, testCtx.theDecodedTextShouldBe)
	sc.Step(`^the decoded format should be "([^"]*)"$`, testCtx.theDecodedFormatShouldBe)
	sc.Step(`^no barcode should be reported$`, testCtx.noBarcodeShouldBeReported)
	sc.Step(`^the result list should be empty but not null$`, testCtx.theResultListShouldBeEmptyButNotNull)
	sc.Step(`^the result list should contain (\d+) barcodes?$`, testCtx.theResultListShouldContainBarcodes)
	sc.Step(`^the decoded texts should include "([^"]*)"$`, testCtx.theDecodedTextsShouldInclude)
	sc.Step(`^the image should be encoded as "([^"]*)"$`, testCtx.theImageShouldBeEncodedAs)
	sc.Step(`^decoding the image bytes should yield "([^"]*)"$`, testCtx.decodingTheImageBytesShouldYield)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should be a "([^"]*)" image$`, testCtx.theFileShouldBeAImage)
}

// RegisterBarcodeSteps registers all barcode library step definitions.
func (testCtx *TestContext) RegisterBarcodeSteps(sc *godog.ScenarioContext) {
	testCtx.registerFixtureSteps(sc)
	testCtx.registerDecodeSteps(sc)
	testCtx.registerEncodeSteps(sc)
	testCtx.registerOutcomeSteps(sc)
}
