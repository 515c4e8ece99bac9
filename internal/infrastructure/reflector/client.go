// Package reflector talks to the remote scoreboard service that
// mirrors event state for public display.
package reflector

import (
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/ibsc/brickscore/internal/platform/logging"
)

// Match status vocabulary the reflector understands.
const (
	StatusQueueing = "queueing"
	StatusRunning  = "running"
	StatusAborted  = "aborted"
)

// TeamEntry is one roster row in a POST /teams body.
type TeamEntry struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Pit    int    `json:"pit"`
}

// MatchStatus is the POST /match body.
type MatchStatus struct {
	Match  int    `json:"match"`
	Status string `json:"status"`
}

// ScoreUpdate is the POST /scores body. Match carries the round number.
type ScoreUpdate struct {
	Team  int `json:"team"`
	Match int `json:"match"`
	Score int `json:"score"`
}

// TeamState is one full-roster row inside an EventSnapshot.
type TeamState struct {
	Name       string `json:"name"`
	TeamNumber int    `json:"teamnumber"`
	Pit        int    `json:"pit"`
	Round1     int    `json:"round1"`
	Round2     int    `json:"round2"`
	Round3     int    `json:"round3"`
}

// EventSnapshot is the POST /sync body used by force sync.
type EventSnapshot struct {
	Match  int         `json:"match"`
	Status string      `json:"status"`
	Teams  []TeamState `json:"teams"`
}

type Config struct {
	// SyncURL is the reflector base; requests go to {SyncURL}/{EventCode}/....
	SyncURL   string
	EventCode string
	APIKey    string
	Timeout   time.Duration
	Logger    *logging.Logger
}

// Client issues reflector POSTs with a bounded timeout. Responses are
// not consumed beyond the status code.
type Client struct {
	httpClient *fasthttp.Client
	base       string
	apiKey     string
	timeout    time.Duration
	logger     *logging.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		httpClient: &fasthttp.Client{},
		base:       strings.TrimRight(strings.TrimSpace(cfg.SyncURL), "/") + "/" + strings.TrimSpace(cfg.EventCode),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *Client) PostTeams(teams []TeamEntry) error {
	return c.post("/teams", teams)
}

func (c *Client) PostMatch(status MatchStatus) error {
	return c.post("/match", status)
}

func (c *Client) PostScore(update ScoreUpdate) error {
	return c.post("/scores", update)
}

// PostSync replaces the whole mirrored event state in one request.
func (c *Client) PostSync(snapshot EventSnapshot) error {
	return c.post("/sync", snapshot)
}

func (c *Client) post(path string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reflector %s body: %w", path, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("apikey", c.apiKey)
	req.SetBody(body)

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return fmt.Errorf("post reflector %s: %w", path, err)
	}

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return fmt.Errorf("reflector %s responded %d", path, status)
	}

	c.logger.Debug("reflector delivery", "path", path, "status", status)

	return nil
}
