package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"
)

// ErrJudgingTimedOut is returned with the partial results when the poll
// budget runs out before every run leaves the pending state.
var ErrJudgingTimedOut = errors.New("judging timed out")

const resultFields = "token,status_id,status,time,memory,stdout,compile_output,stderr"

// Job is one run of the same source against a single stdin.
type Job struct {
	Stdin          string
	ExpectedOutput string
}

// Result is a parsed per-run judge result.
type Result struct {
	Token         string
	StatusID      int
	Description   string
	Outcome       model.Outcome
	Time          *float64 // seconds
	Memory        *int     // KB
	Stdout        string
	CompileOutput string
	Stderr        string
}

// Limiter bounds how many batches may be in flight at the judge.
type Limiter interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type Options struct {
	BaseURL      string
	APIKey       string
	APIHost      string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}

// OptionsFromConfig reads the judge settings from AppConfig.
func OptionsFromConfig() Options {
	return Options{
		BaseURL:      config.AppConfig.JudgeAPIURL,
		APIKey:       config.AppConfig.JudgeAPIKey,
		APIHost:      config.AppConfig.JudgeAPIHost,
		PollInterval: config.AppConfig.JudgePollInterval,
		PollTimeout:  config.AppConfig.JudgePollTimeout,
		HTTPTimeout:  config.AppConfig.JudgeHTTPTimeout,
	}
}

// Client talks to a Judge0-compatible execution service.
type Client struct {
	opts    Options
	http    *http.Client
	limiter Limiter
}

// NewClient builds a client. A nil limiter means no in-flight bound.
func NewClient(opts Options, limiter Limiter) *Client {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 15 * time.Second
	}
	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.HTTPTimeout},
		limiter: limiter,
	}
}

type submissionPayload struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type statusPayload struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type resultPayload struct {
	Token         string         `json:"token"`
	StatusID      *int           `json:"status_id"`
	Status        *statusPayload `json:"status"`
	Time          *string        `json:"time"`
	Memory        *int           `json:"memory"`
	Stdout        *string        `json:"stdout"`
	CompileOutput *string        `json:"compile_output"`
	Stderr        *string        `json:"stderr"`
}

type batchResultResponse struct {
	Submissions []resultPayload `json:"submissions"`
}

// RunBatch submits every job as one batch and polls until all runs finish.
// Results come back in job order. When the poll budget is exhausted the
// results gathered so far are returned together with ErrJudgingTimedOut.
func (c *Client) RunBatch(ctx context.Context, languageID int, source string, jobs []Job) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", common.ErrValidation)
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	payload := struct {
		Submissions []submissionPayload `json:"submissions"`
	}{}
	for _, j := range jobs {
		payload.Submissions = append(payload.Submissions, submissionPayload{
			SourceCode:     encode(source),
			LanguageID:     languageID,
			Stdin:          encode(j.Stdin),
			ExpectedOutput: encode(j.ExpectedOutput),
		})
	}

	var tokens []tokenResponse
	if err := c.do(ctx, http.MethodPost, "/submissions/batch?base64_encoded=true", payload, &tokens); err != nil {
		return nil, err
	}
	if len(tokens) != len(jobs) {
		return nil, fmt.Errorf("%w: judge returned %d tokens for %d runs", common.ErrJudgeFailed, len(tokens), len(jobs))
	}
	ids := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Token == "" {
			return nil, fmt.Errorf("%w: judge rejected run %d", common.ErrJudgeFailed, i)
		}
		ids[i] = t.Token
	}

	return c.poll(ctx, ids)
}

// RunOnce executes source against a single stdin and waits for the result.
func (c *Client) RunOnce(ctx context.Context, languageID int, source, stdin string) (*Result, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	body := submissionPayload{SourceCode: encode(source), LanguageID: languageID, Stdin: encode(stdin)}
	var raw resultPayload
	path := "/submissions?base64_encoded=true&wait=true&fields=" + resultFields
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return nil, err
	}
	res, err := parseResult(raw)
	if err != nil {
		return nil, err
	}
	if res.Outcome != model.OutcomePending {
		return &res, nil
	}
	if res.Token == "" {
		return nil, fmt.Errorf("%w: judge returned a pending run without a token", common.ErrJudgeFailed)
	}

	results, err := c.poll(ctx, []string{res.Token})
	if len(results) == 1 {
		return &results[0], err
	}
	return nil, err
}

func (c *Client) acquire(ctx context.Context) (func(), error) {
	if c.limiter == nil {
		return func() {}, nil
	}
	return c.limiter.Acquire(ctx)
}

func (c *Client) poll(ctx context.Context, tokens []string) ([]Result, error) {
	started := time.Now()
	path := "/submissions/batch?base64_encoded=true&fields=" + resultFields + "&tokens=" + url.QueryEscape(strings.Join(tokens, ","))

	timer := time.NewTimer(c.opts.PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		var batch batchResultResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}
		results, pending, err := parseBatch(tokens, batch.Submissions)
		if err != nil {
			return nil, err
		}
		if pending == 0 {
			return results, nil
		}
		if time.Since(started) >= c.opts.PollTimeout {
			logger.Warn().Int("pending", pending).Int("runs", len(tokens)).Dur("waited", time.Since(started)).Msg("judge poll budget exhausted")
			return results, ErrJudgingTimedOut
		}
		timer.Reset(c.opts.PollInterval)
	}
}

func parseBatch(tokens []string, raw []resultPayload) ([]Result, int, error) {
	if len(raw) != len(tokens) {
		return nil, 0, fmt.Errorf("%w: judge returned %d results for %d tokens", common.ErrJudgeFailed, len(raw), len(tokens))
	}
	results := make([]Result, len(raw))
	pending := 0
	for i, r := range raw {
		res, err := parseResult(r)
		if err != nil {
			return nil, 0, err
		}
		if res.Token == "" {
			res.Token = tokens[i]
		}
		if res.Outcome == model.OutcomePending {
			pending++
		}
		results[i] = res
	}
	return results, pending, nil
}

func parseResult(r resultPayload) (Result, error) {
	res := Result{Token: r.Token, Memory: r.Memory}
	switch {
	case r.Status != nil:
		res.StatusID = r.Status.ID
		res.Description = r.Status.Description
	case r.StatusID != nil:
		res.StatusID = *r.StatusID
	default:
		return res, fmt.Errorf("%w: judge result without a status", common.ErrJudgeFailed)
	}

	outcome, err := outcomeFor(res.StatusID)
	if err != nil {
		return res, fmt.Errorf("%w: %v", common.ErrJudgeFailed, err)
	}
	res.Outcome = outcome
	if res.Description == "" {
		res.Description = string(outcome.Verdict())
	}

	if r.Time != nil && *r.Time != "" {
		t, err := strconv.ParseFloat(*r.Time, 64)
		if err != nil {
			return res, fmt.Errorf("%w: bad time %q", common.ErrJudgeFailed, *r.Time)
		}
		res.Time = &t
	}
	res.Stdout = decode(r.Stdout)
	res.CompileOutput = decode(r.CompileOutput)
	res.Stderr = decode(r.Stderr)
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal judge request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		if c.opts.APIHost != "" {
			req.Header.Set("X-RapidAPI-Key", c.opts.APIKey)
			req.Header.Set("X-RapidAPI-Host", c.opts.APIHost)
		} else {
			req.Header.Set("X-Auth-Token", c.opts.APIKey)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", common.ErrJudgeFailed, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", common.ErrJudgeFailed, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode judge response: %v", common.ErrJudgeFailed, err)
	}
	return nil
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// decode tolerates the line breaks the judge inserts into base64 output.
func decode(s *string) string {
	if s == nil || *s == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, *s)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return *s
	}
	return string(b)
}
