// Package client is a Go SDK for the Virtual Clinic REST API.
//
//	c := client.New("https://clinic.example.org", token)
//	convo, err := c.Conversations.Create(ctx, patientID, client.TaskDiagnosis, nil)
//	reply, err := c.Conversations.SendMessage(ctx, convo.ID, "What brings you in today?")
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout matches the server's ceiling for LLM-backed requests.
	DefaultTimeout = 60 * time.Second
	UserAgent      = "virtual-clinic-go/0.1.0"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	Patients      *PatientsService
	Conversations *ConversationsService
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	c.Patients = &PatientsService{c: c}
	c.Conversations = &ConversationsService{c: c}
	return c
}

// Health calls the public health endpoint. A 503 (database down) is still
// decoded and returned with a ServerError.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out)
	if err != nil && out.Status != "" {
		return &out, err
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp)
		// The health endpoint answers 503 with a full status body.
		var ae *APIError
		if out != nil && resp.StatusCode == http.StatusServiceUnavailable && errors.As(apiErr, &ae) {
			_ = json.Unmarshal(ae.Body, out)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// PatientsService covers /api/patients. Every call needs an admin token.
type PatientsService struct{ c *Client }

func (s *PatientsService) List(ctx context.Context, page, limit int) (*Page[PatientSummary], error) {
	var out Page[PatientSummary]
	if err := s.c.do(ctx, http.MethodGet, "/api/patients", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PatientsService) Get(ctx context.Context, id string) (*PatientDetail, error) {
	var out envelope[PatientDetail]
	if err := s.c.do(ctx, http.MethodGet, "/api/patients/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

type ConversationsService struct{ c *Client }

func (s *ConversationsService) List(ctx context.Context, opts ListConversationsOptions) (*Page[ConversationSummary], error) {
	q := pageQuery(opts.Page, opts.Limit)
	if opts.PatientID != "" {
		q.Set("patientId", opts.PatientID)
	}
	if opts.TaskType != "" {
		q.Set("taskType", string(opts.TaskType))
	}
	var out Page[ConversationSummary]
	if err := s.c.do(ctx, http.MethodGet, "/api/conversations", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConversationsService) Create(ctx context.Context, patientID string, task TaskType, metadata *string) (*CreatedConversation, error) {
	body := map[string]interface{}{"patientId": patientID, "taskType": task}
	if metadata != nil {
		body["metadata"] = *metadata
	}
	var out envelope[CreatedConversation]
	if err := s.c.do(ctx, http.MethodPost, "/api/conversations", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (s *ConversationsService) Get(ctx context.Context, id string) (*ConversationWithMessages, error) {
	var out envelope[ConversationWithMessages]
	if err := s.c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SendMessage posts one interviewer turn and returns the simulated
// patient's reply. Expect several seconds of latency.
func (s *ConversationsService) SendMessage(ctx context.Context, id, content string) (*AssistantMessage, error) {
	var out envelope[AssistantMessage]
	body := map[string]string{"content": content}
	if err := s.c.do(ctx, http.MethodPost, "/api/conversations/"+url.PathEscape(id)+"/messages", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}
