package framework

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/trainingportal/rest-contract-tests/logging"
)

const endpointPathPrefix = "/endpoints/"
const httpListenerTimeout = time.Second * 10

// ServiceInfo describes what the startup probe learned about the service
// under test.
type ServiceInfo struct {
	// Resources are the collection names that answered the probe with 200.
	Resources []string
}

// TestHarness manages the connection to the resource service under test and
// hosts a local HTTP listener for mock endpoints.
type TestHarness struct {
	serviceBaseURL  string
	apiPrefix       string
	externalBaseURL string
	serviceInfo     ServiceInfo
	endpoints       map[string]*MockEndpoint
	lastEndpointID  int
	logger          logging.Logger
	lock            sync.Mutex
}

// NewTestHarness waits for the resource service to come up, probes which of
// the named resource collections it serves, and starts the mock endpoint
// listener on the specified port.
func NewTestHarness(
	serviceBaseURL string,
	apiPrefix string,
	externalHostname string,
	port int,
	startupTimeout time.Duration,
	resources []string,
	debugLogger logging.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = logging.NullLogger()
	}

	h := &TestHarness{
		serviceBaseURL:  strings.TrimSuffix(serviceBaseURL, "/"),
		apiPrefix:       apiPrefix,
		externalBaseURL: fmt.Sprintf("http://%s:%d", externalHostname, port),
		endpoints:       make(map[string]*MockEndpoint),
		logger:          debugLogger,
	}

	serviceInfo, err := probeService(h.serviceBaseURL, apiPrefix, resources, startupTimeout, startupOutput)
	if err != nil {
		return nil, err
	}
	h.serviceInfo = serviceInfo

	if err = startServer(port, http.HandlerFunc(h.serveHTTP)); err != nil {
		return nil, err
	}

	return h, nil
}

// ServiceBaseURL returns the base URL of the service under test.
func (h *TestHarness) ServiceBaseURL() string {
	return h.serviceBaseURL
}

// APIPrefix returns the API path prefix of the service under test.
func (h *TestHarness) APIPrefix() string {
	return h.apiPrefix
}

// ServiceInfo returns what the startup probe learned.
func (h *TestHarness) ServiceInfo() ServiceInfo {
	return h.serviceInfo
}

// ServiceHasResource reports whether the named collection answered the probe.
func (h *TestHarness) ServiceHasResource(name string) bool {
	for _, r := range h.serviceInfo.Resources {
		if r == name {
			return true
		}
	}
	return false
}

// probeService waits until the service answers HTTP at all, then checks each
// named collection with a GET. The service equivalent of a capabilities
// document: tests gate themselves on the collections that answered 200.
func probeService(baseURL, apiPrefix string, resources []string,
	timeout time.Duration, output io.Writer) (ServiceInfo, error) {

	rootURL := baseURL + apiPrefix + "/"
	fmt.Fprintf(output, "Connecting to service at %s", rootURL)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Get(rootURL)
		if err == nil {
			if resp.Body != nil {
				resp.Body.Close()
			}
			fmt.Fprintln(output)
			break
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return ServiceInfo{}, fmt.Errorf("service did not respond within %v: %w", timeout, err)
		}
		time.Sleep(time.Millisecond * 100)
	}

	var info ServiceInfo
	for _, name := range resources {
		url := baseURL + apiPrefix + "/" + name
		resp, err := http.DefaultClient.Get(url)
		if err != nil {
			continue
		}
		if resp.Body != nil {
			resp.Body.Close()
		}
		if resp.StatusCode == http.StatusOK {
			info.Resources = append(info.Resources, name)
		}
	}
	fmt.Fprintf(output, "Service exposes collections: %s\n", strings.Join(info.Resources, ", "))
	return info, nil
}

func (h *TestHarness) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == "HEAD" {
		w.WriteHeader(200) // used to detect that our own listener is active
		return
	}

	if !strings.HasPrefix(req.URL.Path, endpointPathPrefix) {
		h.logger.Printf("Received request for unrecognized URL path %s", req.URL.Path)
		w.WriteHeader(404)
		return
	}
	path := strings.TrimPrefix(req.URL.Path, endpointPathPrefix)
	var endpointID string
	slashPos := strings.Index(path, "/")
	if slashPos >= 0 {
		endpointID = path[0:slashPos]
		path = path[slashPos:]
	} else {
		endpointID = path
		path = ""
	}

	h.lock.Lock()
	e := h.endpoints[endpointID]
	h.lock.Unlock()
	if e == nil {
		h.logger.Printf("Received request for unrecognized endpoint %s", req.URL.Path)
		w.WriteHeader(404)
		return
	}

	e.serveHTTP(w, req, path)
}

func startServer(port int, handler http.Handler) error {
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", port),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "HEAD" {
				w.WriteHeader(200)
				return
			}
			handler.ServeHTTP(w, r)
		}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	// Wait till the server is definitely listening for requests before we run any tests
	deadline := time.NewTimer(httpListenerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("could not detect own listener at %s", server.Addr)
		case <-ticker.C:
			resp, err := http.DefaultClient.Head(fmt.Sprintf("http://localhost:%d", port))
			if err == nil && resp.StatusCode == 200 {
				return nil
			}
		}
	}
}
