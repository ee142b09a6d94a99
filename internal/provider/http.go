package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

// HTTPProvider talks to an asynchronous generation API: create a task, then
// poll its state with exponential backoff until it settles. The overall
// bound comes from the caller's context; each individual HTTP call is
// bounded by cfg.RequestTimeout.
type HTTPProvider struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	log        *slog.Logger
}

func NewHTTPProvider(cfg config.ProviderConfig, log *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
	}
}

type createTaskResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type taskStatusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID     string `json:"taskId"`
		State      string `json:"state"`
		ResultJSON string `json:"resultJson"`
		FailMsg    string `json:"failMsg"`
	} `json:"data"`
}

func (p *HTTPProvider) Submit(ctx context.Context, kind generation.Kind, params generation.Params, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	taskID, err := p.createTask(ctx, kind, params)
	if err != nil {
		return nil, err
	}
	progress(10, "submission accepted")

	return p.pollTask(ctx, taskID, progress)
}

func (p *HTTPProvider) createTask(ctx context.Context, kind generation.Kind, params generation.Params) (string, error) {
	input := map[string]any{
		"prompt": params.Prompt,
	}
	if params.AspectRatio != "" {
		input["aspect_ratio"] = params.AspectRatio
	}
	switch kind {
	case generation.KindImage:
		input["num_outputs"] = params.Count
	case generation.KindVideo:
		input["duration"] = params.DurationSec
	}

	body, err := json.Marshal(map[string]any{
		"model": params.Model,
		"input": input,
	})
	if err != nil {
		return "", errs.Wrap(err, "marshal provider payload")
	}

	resp, raw, err := p.do(ctx, http.MethodPost, "/api/v1/jobs/createTask", body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		p.log.Error("provider rejected task creation", "status", resp.StatusCode, "body", truncateBody(raw))
		return "", errs.Mark(errs.Newf("create task: status %d", resp.StatusCode), ErrRejected)
	}

	var created createTaskResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", errs.Mark(errs.Wrap(err, "decode create task response"), ErrRejected)
	}
	if created.Code != 200 || created.Data.TaskID == "" {
		return "", errs.Mark(errs.Newf("create task failed: code=%d", created.Code), ErrRejected)
	}
	return created.Data.TaskID, nil
}

func (p *HTTPProvider) pollTask(ctx context.Context, taskID string, progress ProgressFunc) (*Result, error) {
	endpoint := "/api/v1/jobs/recordInfo?" + url.Values{"taskId": {taskID}}.Encode()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.PollInitialDelay
	bo.MaxInterval = p.cfg.PollMaxDelay
	bo.MaxElapsedTime = 0 // the ctx deadline is the bound

	var result *Result
	attempt := 0
	operation := func() error {
		attempt++
		resp, raw, err := p.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(errs.Mark(errs.Newf("poll task: status %d", resp.StatusCode), ErrRejected))
		}

		var status taskStatusResponse
		if err := json.Unmarshal(raw, &status); err != nil {
			return backoff.Permanent(errs.Mark(errs.Wrap(err, "decode task status"), ErrRejected))
		}
		if status.Code != 200 {
			return backoff.Permanent(errs.Mark(errs.Newf("poll task failed: code=%d", status.Code), ErrRejected))
		}

		switch status.Data.State {
		case "success":
			var parsed struct {
				ResultURLs []string `json:"resultUrls"`
				Mime       string   `json:"mime"`
			}
			if err := json.Unmarshal([]byte(status.Data.ResultJSON), &parsed); err != nil {
				return backoff.Permanent(errs.Mark(errs.Wrap(err, "parse task result"), ErrRejected))
			}
			if len(parsed.ResultURLs) == 0 {
				return backoff.Permanent(errs.Mark(errs.New("task succeeded with no artifacts"), ErrRejected))
			}
			artifacts := make([]Artifact, 0, len(parsed.ResultURLs))
			for _, u := range parsed.ResultURLs {
				artifacts = append(artifacts, Artifact{URL: u, Mime: parsed.Mime})
			}
			result = &Result{Artifacts: artifacts}
			return nil
		case "fail":
			p.log.Warn("provider task failed", "task_id", taskID, "fail_msg", status.Data.FailMsg)
			return backoff.Permanent(errs.Mark(errs.Newf("task failed: %s", status.Data.FailMsg), ErrRejected))
		default:
			// waiting / queueing / generating
			if attempt%10 == 0 {
				p.log.Info("provider task still pending", "task_id", taskID, "state", status.Data.State, "attempt", attempt)
			}
			progress(min(10+attempt*2, 70), "waiting for provider")
			return errs.Newf("task pending: %s", status.Data.State)
		}
	}

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Mark(err, ErrTimeout)
		}
		return nil, err
	}
	progress(80, "artifacts ready")
	return result, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, []byte, error) {
	base, err := url.Parse(strings.TrimRight(p.cfg.BaseURL, "/"))
	if err != nil {
		return nil, nil, errs.Wrap(err, "parse provider base url")
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, nil, errs.Wrap(err, "parse provider endpoint")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, base.ResolveReference(ref).String(), reader)
	if err != nil {
		return nil, nil, errs.Wrap(err, "build provider request")
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, nil, errs.Mark(err, ErrTimeout)
		}
		return nil, nil, errs.Mark(err, ErrUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errs.Mark(err, ErrUnavailable)
	}
	return resp, raw, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
