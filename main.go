package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"github.com/trainingportal/rest-contract-tests/apitests"
	"github.com/trainingportal/rest-contract-tests/config"
	"github.com/trainingportal/rest-contract-tests/framework"
	"github.com/trainingportal/rest-contract-tests/logging"
)

const defaultPort = 8111
const serviceStartupTimeout = time.Second * 10

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	cfg, err := config.Load(params.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}
	if params.serviceURL != "" {
		cfg.Service.BaseURL = params.serviceURL
	}
	if params.apiPrefix != "" {
		cfg.Service.APIPrefix = params.apiPrefix
	}
	if params.requestTimeout > 0 {
		cfg.Service.RequestTimeout = params.requestTimeout
	}

	mainDebugLogger := logging.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	harness, err := framework.NewTestHarness(
		cfg.Service.BaseURL,
		cfg.Service.APIPrefix,
		params.host,
		params.port,
		serviceStartupTimeout,
		apitests.AllResources,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resource service error: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	framework.PrintFilterDescription(harness, params.filters, apitests.AllResources)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := apitests.RunTestSuite(harness, cfg, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(results)
	if !results.OK() {
		printRerunHint(params, results)
		os.Exit(1)
	}
}

// printRerunHint prints a shell command that reruns only the failed tests.
func printRerunHint(params commandParams, results framework.Results) {
	var cmd commandBuilder
	cmd.add(os.Args[0])
	if params.serviceURL != "" {
		cmd.add("-url", params.serviceURL)
	}
	if params.configFile != "" {
		cmd.add("-config", params.configFile)
	}
	for _, f := range results.Failures {
		cmd.add("-run", "^"+regexp.QuoteMeta(f.TestID.String())+"$")
	}
	fmt.Println()
	fmt.Printf("To rerun only the failed tests:\n  %s\n", cmd)
}
