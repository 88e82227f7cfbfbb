// Command vigil-test executes one workflow test run from the command
// line: it loads a workflow document, runs it against a single frame,
// and prints the execution report as JSON.
//
// The detection backend is selected with -provider. The http backend
// calls a live inference service; the static backend serves canned
// detections from a fixtures file, which makes runs reproducible
// without any network dependency:
//
//	vigil-test -workflow loitering.yaml -image frames/cam3/0001.jpg \
//	    -provider static -fixtures detections.yaml
//
// With -repeat the same test executes multiple times, which is useful
// for soaking a flaky detection backend; -metrics-listen exposes
// Prometheus metrics for the duration of the process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-vigil/infrastructure/detection"
	"github.com/ahrav/go-vigil/infrastructure/middleware"
	"github.com/ahrav/go-vigil/internal/application"
	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

func main() {
	var (
		workflowPath = flag.String("workflow", "", "Path to the workflow YAML document (required)")
		imageRef     = flag.String("image", "", "Image reference for the test frame (required)")
		sourceID     = flag.String("source", "", "Source id of the test frame; defaults to the video source node's configured source")
		width        = flag.Int("width", 1920, "Frame width in pixels")
		height       = flag.Int("height", 1080, "Frame height in pixels")
		provider     = flag.String("provider", "http", "Detection backend: http or static")
		endpoint     = flag.String("endpoint", os.Getenv("VIGIL_INFERENCE_ENDPOINT"), "Inference service endpoint for the http backend")
		apiKey       = flag.String("api-key", os.Getenv("VIGIL_INFERENCE_API_KEY"), "Inference service API key for the http backend")
		fixturesPath = flag.String("fixtures", "", "Detections fixture file for the static backend")
		timeout      = flag.Duration("timeout", 30*time.Second, "Overall run timeout")
		repeat       = flag.Int("repeat", 1, "Execute the test this many times; the report of the last run is printed")
		metricsAddr  = flag.String("metrics-listen", "", "Address to serve Prometheus metrics on, e.g. :9090")
		pretty       = flag.Bool("pretty", true, "Indent the report JSON")
	)
	flag.Parse()

	if *workflowPath == "" || *imageRef == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *repeat < 1 {
		*repeat = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	loader, err := application.NewWorkflowLoader()
	if err != nil {
		log.Fatalf("Failed to create workflow loader: %v", err)
	}
	workflow, err := loader.LoadFromFile(ctx, *workflowPath)
	if err != nil {
		log.Fatalf("Failed to load workflow: %v", err)
	}

	var collector ports.MetricsCollector
	var engineOpts []application.EngineOption
	if *metricsAddr != "" {
		prom := middleware.NewPrometheusMetrics()
		collector = prom
		engineOpts = append(engineOpts, application.WithMetrics(prom))
		go serveMetrics(*metricsAddr)
	}

	client, err := buildDetectionClient(*provider, *endpoint, *apiKey, *fixturesPath, collector)
	if err != nil {
		log.Fatalf("Failed to create detection client: %v", err)
	}

	registry := application.NewDefaultHandlerRegistry(client)
	validator := application.NewGraphValidator(nil)
	engine := application.NewEngine(registry, validator, engineOpts...)

	input := domain.RunInput{
		Frame: domain.FrameRef{
			SourceID:   *sourceID,
			ImageRef:   *imageRef,
			Width:      *width,
			Height:     *height,
			CapturedAt: time.Now().UTC(),
		},
	}

	var report domain.ExecutionReport
	failures := 0
	for i := 0; i < *repeat; i++ {
		report, err = engine.Run(ctx, workflow.Name, workflow.Graph, input)
		if err != nil {
			log.Fatalf("Run rejected: %v", err)
		}
		if !report.OverallSuccess {
			failures++
		}
	}
	if *repeat > 1 {
		log.Printf("Completed %d runs, %d failed", *repeat, failures)
	}

	if err := printReport(report, *pretty); err != nil {
		log.Fatalf("Failed to print report: %v", err)
	}

	if failures > 0 {
		os.Exit(1)
	}
}

// serveMetrics exposes the Prometheus registry over HTTP. Errors other
// than a clean shutdown are logged, not fatal; a broken metrics
// listener should not sink the test run.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}

// buildDetectionClient assembles the detection client for the selected
// backend with a per-call timeout, request tracing, and, when a
// collector is attached, detection traffic metrics.
func buildDetectionClient(provider, endpoint, apiKey, fixturesPath string, collector ports.MetricsCollector) (ports.DetectionClient, error) {
	config := detection.ClientConfig{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Middleware: []detection.Middleware{
			detection.TracingMiddleware("vigil-test"),
			detection.TimeoutMiddleware(10 * time.Second),
		},
	}
	if collector != nil {
		config.Middleware = append(config.Middleware, detection.MetricsMiddleware(collector))
	}

	switch provider {
	case "static":
		if fixturesPath == "" {
			return nil, fmt.Errorf("static backend requires -fixtures")
		}
		fixtures, err := loadFixtures(fixturesPath)
		if err != nil {
			return nil, err
		}
		config.StaticResults = fixtures
	case "http":
		if endpoint == "" {
			return nil, fmt.Errorf("http backend requires -endpoint or VIGIL_INFERENCE_ENDPOINT")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q, want http or static", provider)
	}

	return detection.NewClient(provider, config)
}

// printReport writes the execution report to stdout as JSON.
func printReport(report domain.ExecutionReport, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

// loadFixtures reads a YAML file mapping algorithm ids to the canned
// detections the static backend should serve:
//
//	person-v2:
//	  - box: {x1: 100, y1: 50, x2: 300, y2: 400}
//	    confidence: 0.91
//	    class_name: person
func loadFixtures(path string) (map[string][]domain.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var fixtures map[string][]domain.Detection
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	return fixtures, nil
}
