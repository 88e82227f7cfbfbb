package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

const (
	// httpProviderName identifies the REST backend in errors and spans.
	httpProviderName = "http"

	// detectPath is the inference endpoint path appended to the
	// configured base endpoint.
	detectPath = "/v1/detect"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 << 20

	// maxErrorBodyBytes bounds how much of an error body is quoted.
	maxErrorBodyBytes = 4 << 10
)

func init() {
	RegisterProviderFactory(httpProviderName, newHTTPProvider)
}

// httpProvider implements CoreDetector against a REST inference
// service. The service accepts an algorithm id plus an image, given by
// reference or inline as base64, and returns detections in corner-form
// pixel coordinates.
type httpProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	classifier *ErrorClassifier
}

// newHTTPProvider creates the REST backend from configuration.
// The endpoint is required and must be an absolute http or https URL.
func newHTTPProvider(config ClientConfig) (CoreDetector, error) {
	if config.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	parsed, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: must be an absolute http(s) URL", config.Endpoint)
	}

	httpClient := &http.Client{}
	if config.Timeout > 0 {
		httpClient.Timeout = config.Timeout
	}

	return &httpProvider{
		endpoint:   strings.TrimRight(config.Endpoint, "/"),
		apiKey:     config.APIKey,
		httpClient: httpClient,
		classifier: &ErrorClassifier{Provider: httpProviderName},
	}, nil
}

// detectRequestBody is the wire form of an inference request.
type detectRequestBody struct {
	AlgorithmID string `json:"algorithm_id"`
	ImageRef    string `json:"image_ref,omitempty"`
	ImageData   string `json:"image_data,omitempty"`
}

// boxBody is the wire form of a bounding box.
type boxBody struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// detectionBody is the wire form of a single detection.
type detectionBody struct {
	Box        boxBody `json:"box"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
}

// detectResponseBody is the wire form of an inference response.
type detectResponseBody struct {
	Detections   []detectionBody `json:"detections"`
	ModelVersion string          `json:"model_version"`
}

// DoDetect sends the inference request and parses the response.
// Failures are classified into the detection error taxonomy so layers
// above can decide retryability without parsing messages.
func (p *httpProvider) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	if req.AlgorithmID == "" {
		return nil, ports.NewDetectionError(httpProviderName, "", "detect",
			fmt.Errorf("algorithm id cannot be empty"))
	}
	if req.ImageRef == "" && len(req.ImageBytes) == 0 {
		return nil, ports.NewDetectionError(httpProviderName, req.AlgorithmID, "detect", ErrMissingImage)
	}

	body := detectRequestBody{AlgorithmID: req.AlgorithmID}
	if len(req.ImageBytes) > 0 {
		body.ImageData = base64.StdEncoding.EncodeToString(req.ImageBytes)
	} else {
		body.ImageRef = req.ImageRef
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, ports.NewDetectionError(httpProviderName, req.AlgorithmID, "detect",
			fmt.Errorf("encoding request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+detectPath, bytes.NewReader(encoded))
	if err != nil {
		return nil, ports.NewDetectionError(httpProviderName, req.AlgorithmID, "detect",
			fmt.Errorf("building request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, p.classifier.ClassifyContextError(req.AlgorithmID, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyBytes))
		return nil, p.classifier.ClassifyHTTPError(
			httpResp.StatusCode,
			req.AlgorithmID,
			parseRetryAfter(httpResp.Header.Get("Retry-After")),
			fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		)
	}

	var decoded detectResponseBody
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, p.classifier.ClassifyDecodeError(req.AlgorithmID, err)
	}

	detections := make([]domain.Detection, len(decoded.Detections))
	for i, d := range decoded.Detections {
		detections[i] = domain.Detection{
			Box: domain.BoundingBox{
				X1: d.Box.X1,
				Y1: d.Box.Y1,
				X2: d.Box.X2,
				Y2: d.Box.Y2,
			},
			Confidence: d.Confidence,
			ClassID:    d.ClassID,
			ClassName:  d.ClassName,
		}
	}

	return &ports.DetectionResponse{
		Detections:   detections,
		ModelVersion: decoded.ModelVersion,
	}, nil
}

// Provider returns the backend name.
func (p *httpProvider) Provider() string { return httpProviderName }

// parseRetryAfter reads a Retry-After header given in seconds.
// Date-form values and garbage yield zero.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
