package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/trainingportal/rest-contract-tests/framework"
)

type commandParams struct {
	serviceURL     string
	apiPrefix      string
	configFile     string
	port           int
	host           string
	requestTimeout time.Duration
	filters        framework.RegexFilters
	debug          bool
	debugAll       bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.serviceURL, "url", "", "resource service base URL (overrides config file and BASE_URL)")
	fs.StringVar(&c.apiPrefix, "prefix", "", "API path prefix (overrides config file and API_PREFIX)")
	fs.StringVar(&c.configFile, "config", "", "path to a YAML configuration file")
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the test harness")
	fs.IntVar(&c.port, "port", defaultPort, "port that the test harness will listen on")
	fs.DurationVar(&c.requestTimeout, "timeout", 0, "per-request timeout (overrides config file and REQUEST_TIMEOUT)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	return true
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
