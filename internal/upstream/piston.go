package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultPistonURL is the public Piston execute endpoint.
const DefaultPistonURL = "https://emkc.org/api/v2/piston/execute"

// runtimeSpec pairs a Piston language name with the pinned version the
// upstream expects.
type runtimeSpec struct {
	Language string
	Version  string
}

// runtimes is the fixed set of supported languages. Anything else falls
// back to defaultRuntime rather than failing the request.
var runtimes = map[string]runtimeSpec{
	"python":     {Language: "python", Version: "3.10.0"},
	"javascript": {Language: "javascript", Version: "18.15.0"},
	"typescript": {Language: "typescript", Version: "5.0.3"},
	"java":       {Language: "java", Version: "15.0.2"},
	"c":          {Language: "c", Version: "10.2.0"},
	"cpp":        {Language: "c++", Version: "10.2.0"},
	"go":         {Language: "go", Version: "1.16.2"},
}

var defaultRuntime = runtimes["python"]

// resolveRuntime maps a client language name to an upstream runtime.
func resolveRuntime(language string) runtimeSpec {
	if rt, ok := runtimes[language]; ok {
		return rt
	}
	return defaultRuntime
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
}

type executeFile struct {
	Content string `json:"content"`
}

type executeResponse struct {
	Run     executeResult `json:"run"`
	Compile executeResult `json:"compile"`
	Message string        `json:"message"`
}

type executeResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
}

// PistonClient runs code on a Piston-compatible execution service.
type PistonClient struct {
	url        string
	httpClient *http.Client
}

// NewPistonClient builds an execution client against url, or the public
// endpoint when url is empty.
func NewPistonClient(url string, timeout time.Duration) *PistonClient {
	if url == "" {
		url = DefaultPistonURL
	}
	return &PistonClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Run executes code remotely and returns the combined output. The output of
// a failed program (compile errors, stack traces) is still a successful Run;
// only transport-level problems surface as errors.
func (p *PistonClient) Run(ctx context.Context, language, code string) (string, error) {
	rt := resolveRuntime(language)
	body, err := json.Marshal(executeRequest{
		Language: rt.Language,
		Version:  rt.Version,
		Files:    []executeFile{{Content: code}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal execute request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build execute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("execute upstream returned status %d", resp.StatusCode)
	}

	var result executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode execute response: %w", err)
	}

	switch {
	case result.Run.Output != "":
		return result.Run.Output, nil
	case result.Compile.Output != "":
		return result.Compile.Output, nil
	case result.Message != "":
		return result.Message, nil
	}
	return "", nil
}
