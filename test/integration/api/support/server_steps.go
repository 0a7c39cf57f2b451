package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/bargo/internal/server"
)

// startServer boots the real handler stack inside an httptest server.
func (testCtx *TestContext) startServer(config server.Config) error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}

	mux := http.NewServeMux()
	server.NewServer(config).SetupRoutes(mux)
	testCtx.HTTPServer = httptest.NewServer(mux)
	return nil
}

// theServerIsRunning starts the server with defaults.
func (testCtx *TestContext) theServerIsRunning() error {
	if testCtx.HTTPServer != nil {
		return nil
	}
	return testCtx.startServer(server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 32,
	})
}

// theServerIsRunningWithARateLimit starts the server with a per-client
// request cap.
func (testCtx *TestContext) theServerIsRunningWithARateLimit(requestsPerMinute int) error {
	return testCtx.startServer(server.Config{
		CORSOrigin:         "*",
		MaxUploadMB:        32,
		RateLimitPerMinute: requestsPerMinute,
	})
}

// doRequest performs a request and stores the response for later
// verification steps. Transport failures are stored, not returned, so
// the steps that assert on them decide the outcome.
func (testCtx *TestContext) doRequest(req *http.Request) error {
	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Do(req)
	if err != nil {
		testCtx.LastError = err
		testCtx.LastHTTPStatusCode = 0
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastError = nil
	if resp.StatusCode >= 400 {
		testCtx.LastError = fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	testCtx.LastHTTPHeaders = map[string]string{}
	for key, values := range resp.Header {
		if len(values) > 0 {
			testCtx.LastHTTPHeaders[key] = values[0]
		}
	}

	return nil
}

// requireServer guards steps that need a running server.
func (testCtx *TestContext) requireServer() error {
	if testCtx.HTTPServer == nil {
		return errors.New("no server is running; add a server background step")
	}
	return nil
}

// iGET makes a GET request to the endpoint.
func (testCtx *TestContext) iGET(endpoint string) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, testCtx.ServerURL()+endpoint, nil)
	if err != nil {
		return err
	}
	return testCtx.doRequest(req)
}

// iMakeAnOPTIONSRequestTo makes a CORS preflight request.
func (testCtx *TestContext) iMakeAnOPTIONSRequestTo(endpoint string) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodOptions, testCtx.ServerURL()+endpoint, nil)
	if err != nil {
		return err
	}
	return testCtx.doRequest(req)
}

// postMultipart uploads a file under the given field name plus any
// extra form values.
func (testCtx *TestContext) postMultipart(endpoint, fieldName, filePath string, extra map[string]string) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if filePath != "" {
		file, err := os.Open(filePath) //nolint:gosec // G304: controlled test path
		if err != nil {
			return fmt.Errorf("failed to open upload file: %w", err)
		}
		defer func() { _ = file.Close() }()

		part, err := writer.CreateFormFile(fieldName, filepath.Base(filePath))
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("failed to copy file data: %w", err)
		}
	}

	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, testCtx.ServerURL()+endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return testCtx.doRequest(req)
}

// postJSON sends a JSON body to the endpoint.
func (testCtx *TestContext) postJSON(endpoint string, payload any) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, testCtx.ServerURL()+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return testCtx.doRequest(req)
}

// iPOSTTheImageTo uploads a fixture image.
func (testCtx *TestContext) iPOSTTheImageTo(name, endpoint string) error {
	return testCtx.postMultipart(endpoint, "image", testCtx.FixturePath(name), nil)
}

// iPOSTTheImageToWithFormValue uploads a fixture image with one extra
// form value.
func (testCtx *TestContext) iPOSTTheImageToWithFormValue(name, endpoint, key, value string) error {
	return testCtx.postMultipart(endpoint, "image", testCtx.FixturePath(name), map[string]string{key: value})
}

// iPOSTAnEmptyFormTo posts a multipart form with no file in it.
func (testCtx *TestContext) iPOSTAnEmptyFormTo(endpoint string) error {
	return testCtx.postMultipart(endpoint, "image", "", nil)
}

// iPOSTAJSONDecodeRequestForTheFile sends the JSON body variant of
// /decode with a file path input.
func (testCtx *TestContext) iPOSTAJSONDecodeRequestForTheFile(name string) error {
	return testCtx.postJSON("/decode", map[string]any{"input": testCtx.FixturePath(name)})
}

// iPOSTAJSONMultiDecodeRequestForTheFile sends the multi variant.
func (testCtx *TestContext) iPOSTAJSONMultiDecodeRequestForTheFile(name string) error {
	return testCtx.postJSON("/decode", map[string]any{"input": testCtx.FixturePath(name), "multi": true})
}

// iPOSTAnEncodeRequestFor sends an encode request with default options.
func (testCtx *TestContext) iPOSTAnEncodeRequestFor(content, endpoint string) error {
	return testCtx.postJSON(endpoint, map[string]any{"content": content})
}

// iPOSTAnEncodeRequestForWithFormat sends an encode request for a
// specific symbology.
func (testCtx *TestContext) iPOSTAnEncodeRequestForWithFormat(content, formatName, endpoint string) error {
	return testCtx.postJSON(endpoint, map[string]any{
		"content": content,
		"options": map[string]any{"format": formatName},
	})
}

// iPOSTEncodeRequestsFor sends the same encode request repeatedly,
// keeping the last response. Used to trip the rate limiter.
func (testCtx *TestContext) iPOSTEncodeRequestsFor(count int, content, endpoint string) error {
	for range count {
		if err := testCtx.iPOSTAnEncodeRequestFor(content, endpoint); err != nil {
			return err
		}
	}
	return nil
}

// iPOSTThePDFTo uploads a fixture PDF.
func (testCtx *TestContext) iPOSTThePDFTo(name, endpoint string) error {
	return testCtx.postMultipart(endpoint, "pdf", testCtx.FixturePath(name), nil)
}

// iPOSTThePDFToWithPages uploads a fixture PDF with a page range.
func (testCtx *TestContext) iPOSTThePDFToWithPages(name, endpoint, pages string) error {
	return testCtx.postMultipart(endpoint, "pdf", testCtx.FixturePath(name), map[string]string{"pages": pages})
}

// theResponseStatusShouldBe verifies the HTTP status code.
func (testCtx *TestContext) theResponseStatusShouldBe(expectedStatus int) error {
	if testCtx.LastHTTPStatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d\nResponse: %s",
			expectedStatus, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseShouldBeValidJSON verifies the body parses as JSON.
func (testCtx *TestContext) theResponseShouldBeValidJSON() error {
	var js json.RawMessage
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &js); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nResponse: %s", err, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseShouldContain verifies the body contains specific text.
func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseContentTypeShouldBe verifies the Content-Type header.
func (testCtx *TestContext) theResponseContentTypeShouldBe(contentType string) error {
	actual := testCtx.LastHTTPHeaders["Content-Type"]
	if !strings.HasPrefix(actual, contentType) {
		return fmt.Errorf("expected content type %s, got %s", contentType, actual)
	}
	return nil
}

// theResponseHeaderShouldBe verifies an exact header value.
func (testCtx *TestContext) theResponseHeaderShouldBe(header, value string) error {
	actual, ok := testCtx.LastHTTPHeaders[header]
	if !ok {
		return fmt.Errorf("response has no %s header", header)
	}
	if actual != value {
		return fmt.Errorf("expected header %s to be %q, got %q", header, value, actual)
	}
	return nil
}

// theResponseHeaderShouldBePresent verifies a header exists.
func (testCtx *TestContext) theResponseHeaderShouldBePresent(header string) error {
	if _, ok := testCtx.LastHTTPHeaders[header]; !ok {
		return fmt.Errorf("response has no %s header", header)
	}
	return nil
}

// jsonField extracts a top-level field from the JSON response body.
func (testCtx *TestContext) jsonField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &data); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w\nResponse: %s", err, testCtx.LastHTTPResponse)
	}
	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %q not found in response: %s", field, testCtx.LastHTTPResponse)
	}
	return value, nil
}

// theJSONFieldShouldBeString verifies a string field value.
func (testCtx *TestContext) theJSONFieldShouldBeString(field, expected string) error {
	value, err := testCtx.jsonField(field)
	if err != nil {
		return err
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q is not a string: %v", field, value)
	}
	if s != expected {
		return fmt.Errorf("expected field %q to be %q, got %q", field, expected, s)
	}
	return nil
}

// theJSONFieldShouldBeLiteral verifies a true/false/null field value.
func (testCtx *TestContext) theJSONFieldShouldBeLiteral(field, literal string) error {
	value, err := testCtx.jsonField(field)
	if err != nil {
		return err
	}

	switch literal {
	case "true", "false":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %q is not a boolean: %v", field, value)
		}
		if fmt.Sprintf("%t", b) != literal {
			return fmt.Errorf("expected field %q to be %s, got %t", field, literal, b)
		}
	case "null":
		if value != nil {
			return fmt.Errorf("expected field %q to be null, got %v", field, value)
		}
	default:
		return fmt.Errorf("unsupported literal in step: %s", literal)
	}
	return nil
}

// theJSONFieldShouldBeTheNumber verifies a numeric field value.
func (testCtx *TestContext) theJSONFieldShouldBeTheNumber(field string, expected int) error {
	value, err := testCtx.jsonField(field)
	if err != nil {
		return err
	}
	n, ok := value.(float64)
	if !ok {
		return fmt.Errorf("field %q is not a number: %v", field, value)
	}
	if int(n) != expected {
		return fmt.Errorf("expected field %q to be %d, got %v", field, expected, n)
	}
	return nil
}

// theJSONFieldShouldBeAnEmptyList verifies an empty-but-present array.
func (testCtx *TestContext) theJSONFieldShouldBeAnEmptyList(field string) error {
	value, err := testCtx.jsonField(field)
	if err != nil {
		return err
	}
	list, ok := value.([]any)
	if !ok {
		return fmt.Errorf("field %q is not a list: %v", field, value)
	}
	if len(list) != 0 {
		return fmt.Errorf("expected field %q to be empty, got %d entries", field, len(list))
	}
	return nil
}

// registerServerLifecycleSteps registers server startup steps.
func (testCtx *TestContext) registerServerLifecycleSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the server is running with a rate limit of (\d+) requests per minute$`,
		testCtx.theServerIsRunningWithARateLimit)
}

// registerRequestSteps registers HTTP request steps.
func (testCtx *TestContext) registerRequestSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I make an OPTIONS request to "([^"]*)"$`, testCtx.iMakeAnOPTIONSRequestTo)
	sc.Step(`^I POST the image "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTTheImageTo)
	sc.Step(`^I POST the image "([^"]*)" to "([^"]*)" with form value "([^"]*)" set to "([^"]*)"$`,
		testCtx.iPOSTTheImageToWithFormValue)
	sc.Step(`^I POST an empty form to "([^"]*)"$`, testCtx.iPOSTAnEmptyFormTo)
	sc.Step(`^I POST a JSON decode request for the file "([^"]*)"$`,
		testCtx.iPOSTAJSONDecodeRequestForTheFile)
	sc.Step(`^I POST a JSON multi decode request for the file "([^"]*)"$`,
		testCtx.iPOSTAJSONMultiDecodeRequestForTheFile)
	sc.Step(`^I POST an encode request for "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTAnEncodeRequestFor)
	sc.Step(`^I POST an encode request for "([^"]*)" with format "([^"]*)" to "([^"]*)"$`,
		testCtx.iPOSTAnEncodeRequestForWithFormat)
	sc.Step(`^I POST (\d+) encode requests for "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTEncodeRequestsFor)
	sc.Step(`^I POST the PDF "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTThePDFTo)
	sc.Step(`^I POST the PDF "([^"]*)" to "([^"]*)" with pages "([^"]*)"$`, testCtx.iPOSTThePDFToWithPages)
}

// registerResponseSteps registers HTTP response verification steps.
func (testCtx *TestContext) registerResponseSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should be valid JSON$`, testCtx.theResponseShouldBeValidJSON)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response content type should be "([^"]*)"$`, testCtx.theResponseContentTypeShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response header "([^"]*)" should be present$`, testCtx.theResponseHeaderShouldBePresent)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBeString)
	sc.Step(`^the JSON field "([^"]*)" should be (true|false|null)$`, testCtx.theJSONFieldShouldBeLiteral)
	sc.Step(`^the JSON field "([^"]*)" should be the number (\d+)$`, testCtx.theJSONFieldShouldBeTheNumber)
	sc.Step(`^the JSON field "([^"]*)" should be an empty list$`, testCtx.theJSONFieldShouldBeAnEmptyList)
}

// RegisterServerSteps registers all HTTP server step definitions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	testCtx.registerServerLifecycleSteps(sc)
	testCtx.registerRequestSteps(sc)
	testCtx.registerResponseSteps(sc)
}
