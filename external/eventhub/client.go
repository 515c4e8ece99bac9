// Package eventhub talks to the hosted scoresheet scoring service. The
// service turns a completed scoresheet (per-mission task answers) into
// an overall match score so referees do not tally by hand.
package eventhub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ibsc/brickscore/internal/platform/logging"
	"github.com/ibsc/brickscore/internal/platform/resilience"
	"github.com/ibsc/brickscore/internal/usecase"
)

const (
	defaultCommandsURL = "https://o76fno8oxh.execute-api.eu-central-1.amazonaws.com/api/score_input/commands"
	scoreCommandType   = "generate_public_score"
)

var errEventHubTransient = crerr.New("eventhub transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	CommandsURL    string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.Config
}

type Client struct {
	httpClient     *http.Client
	commandsURL    string
	logger         *logging.Logger
	breaker        *resilience.Breaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	commandsURL := strings.TrimSpace(cfg.CommandsURL)
	if commandsURL == "" {
		commandsURL = defaultCommandsURL
	}
	return &Client{
		httpClient:     httpClient,
		commandsURL:    commandsURL,
		logger:         logger,
		breaker:        resilience.NewBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type commandEnvelope struct {
	Data commandData `json:"data"`
}

type commandData struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

type scoreResponse struct {
	Data struct {
		Attributes struct {
			OverallScore int `json:"overall_score"`
		} `json:"attributes"`
	} `json:"data"`
}

// Probe checks that the scoring service is reachable. Callers gate the
// scoresheet feature for the whole session on this result: referees
// must not start a sheet that cannot be scored.
func (c *Client) Probe(ctx context.Context) error {
	// An empty sheet still scores; any well-formed response proves
	// connectivity end to end.
	_, err := c.GetScore(ctx, map[string]any{})
	if err != nil {
		return fmt.Errorf("scoring service probe: %w", err)
	}
	return nil
}

// GetScore submits the scoresheet task answers and returns the overall
// match score computed by the service.
func (c *Client) GetScore(ctx context.Context, tasks map[string]any) (int, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "eventhub circuit breaker rejected request", "state", c.breaker.State().String())
			return 0, fmt.Errorf("%w: scoring service is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	score, err := c.execute(ctx, tasks)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errEventHubTransient) {
			c.breaker.Failure()
		} else {
			c.breaker.Success()
		}
	}
	return score, err
}

func (c *Client) execute(ctx context.Context, tasks map[string]any) (int, error) {
	body, err := sonic.Marshal(commandEnvelope{
		Data: commandData{Type: scoreCommandType, Attributes: tasks},
	})
	if err != nil {
		return 0, fmt.Errorf("encode score command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commandsURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: send request: %v", errEventHubTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("%w: read response body: %v", errEventHubTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return 0, fmt.Errorf("%w: scoring service status=%d", errEventHubTransient, resp.StatusCode)
		}
		return 0, fmt.Errorf("scoring service status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}

	var decoded scoreResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}

	return decoded.Data.Attributes.OverallScore, nil
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
