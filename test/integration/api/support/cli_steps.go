package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/bargo/cmd/bargo/cmd"
)

// fixtureToken matches {name} placeholders in feature file commands.
var fixtureToken = regexp.MustCompile(`\{([^}]+)\}`)

// substituteFixturePaths replaces {name} placeholders with the paths
// of registered fixtures. Unregistered names resolve into the temp
// directory, which lets commands name output files before they exist.
func (testCtx *TestContext) substituteFixturePaths(command string) string {
	return fixtureToken.ReplaceAllStringFunc(command, func(token string) string {
		name := strings.Trim(token, "{}")
		return testCtx.FixturePath(name)
	})
}

// iRunCommand executes a CLI command in process through the root
// command. Flag values persist between executions in one test process,
// so feature files pin every flag their assertions depend on.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteFixturePaths(command)
	testCtx.LastCommand = command

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "bargo" {
		return fmt.Errorf("commands must start with bargo, got %q", parts[0])
	}

	buf := new(bytes.Buffer)
	root := cmd.GetRootCommand()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(parts[1:])

	err := root.Execute()
	testCtx.LastOutput = buf.String()
	testCtx.LastError = err
	if err != nil {
		testCtx.LastExitCode = 1
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed: %v\nOutput: %s", testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain %q\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldNotContain verifies the output lacks specific text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output contains %q\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON,
// skipping any leading log lines.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	output := strings.TrimSpace(testCtx.LastOutput)

	jsonStart := -1
	for i, r := range output {
		if r == '{' || r == '[' {
			jsonStart = i
			break
		}
	}
	if jsonStart == -1 {
		return fmt.Errorf("no JSON found in output: %s", testCtx.LastOutput)
	}

	var js json.RawMessage
	if err := json.Unmarshal([]byte(output[jsonStart:]), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nJSON part: %s", err, output[jsonStart:])
	}
	return nil
}

// theErrorShouldMention verifies the failure mentions specific text,
// in either the error message or the captured output.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected one mentioning %q", errorText)
	}

	fullErrorText := testCtx.LastOutput
	if testCtx.LastError != nil {
		fullErrorText += " " + testCtx.LastError.Error()
	}

	if !strings.Contains(strings.ToLower(fullErrorText), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not mention %q\nActual error: %s", errorText, fullErrorText)
	}
	return nil
}

// RegisterCLISteps registers command execution and verification steps.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
}
