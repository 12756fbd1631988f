// Package client implements backend.Backend against the BudgetWise REST API,
// with push events read from its Server-Sent Events stream.
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
	"strings"
	"time"

	"budgetwise/internal/backend"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
)

// TokenSource returns the bearer token to present for ownerID.
type TokenSource func(ownerID string) (string, error)

// StaticToken always presents token.
func StaticToken(token string) TokenSource {
	return func(string) (string, error) { return token, nil }
}

// Client talks to the BudgetWise API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	// streamClient has no overall timeout; streams live until unsubscribed.
	streamClient *http.Client
	retryDelay   time.Duration
}

// New creates a Client. httpClient carries the per-request timeout and is
// used for everything except the change stream.
func New(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokens:       tokens,
		httpClient:   httpClient,
		streamClient: &http.Client{Transport: httpClient.Transport},
		retryDelay:   time.Second,
	}
}

var _ backend.Backend = (*Client)(nil)

type transactionBody struct {
	Kind        models.TransactionKind `json:"kind"`
	Amount      string                 `json:"amount"`
	Category    string                 `json:"category"`
	Description string                 `json:"description,omitempty"`
	Date        string                 `json:"date,omitempty"`
}

type patchBody struct {
	Kind        *models.TransactionKind `json:"kind,omitempty"`
	Amount      *string                 `json:"amount,omitempty"`
	Category    *string                 `json:"category,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Date        *string                 `json:"date,omitempty"`
}

type investmentBody struct {
	Type         models.InvestmentType `json:"type"`
	Name         string                `json:"name"`
	Amount       string                `json:"amount"`
	Quantity     *string               `json:"quantity,omitempty"`
	Symbol       string                `json:"symbol,omitempty"`
	PurchaseDate string                `json:"purchase_date,omitempty"`
}

// formatDate renders t for the API; the zero time is omitted so the server
// applies its default.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// FetchTransactions implements backend.Backend.
func (c *Client) FetchTransactions(ctx context.Context, ownerID string, r *backend.DateRange) ([]models.Transaction, error) {
	q := url.Values{}
	if r != nil {
		if !r.From.IsZero() {
			q.Set("from", r.From.Format("2006-01-02"))
		}
		if !r.To.IsZero() {
			q.Set("to", r.To.Format("2006-01-02"))
		}
	}
	path := "/api/v1/transactions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := c.do(ctx, ownerID, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	if result.Transactions == nil {
		result.Transactions = []models.Transaction{}
	}
	return result.Transactions, nil
}

// InsertTransaction implements backend.Backend.
func (c *Client) InsertTransaction(ctx context.Context, ownerID string, input models.TransactionInput) (*models.Transaction, error) {
	body := transactionBody{
		Kind:        input.Kind,
		Amount:      input.Amount.String(),
		Category:    input.Category,
		Description: input.Description,
		Date:        formatDate(input.Date),
	}
	var result struct {
		Transaction *models.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, ownerID, http.MethodPost, "/api/v1/transactions", body, &result); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	return result.Transaction, nil
}

// UpdateTransaction implements backend.Backend.
func (c *Client) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	body := patchBody{
		Kind:        patch.Kind,
		Category:    patch.Category,
		Description: patch.Description,
	}
	if patch.Amount != nil {
		s := patch.Amount.String()
		body.Amount = &s
	}
	if patch.Date != nil {
		s := formatDate(*patch.Date)
		body.Date = &s
	}

	var result struct {
		Transaction *models.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, ownerID, http.MethodPatch, "/api/v1/transactions/"+url.PathEscape(id), body, &result); err != nil {
		return nil, fmt.Errorf("updating transaction: %w", err)
	}
	return result.Transaction, nil
}

// DeleteTransaction implements backend.Backend.
func (c *Client) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := c.do(ctx, ownerID, http.MethodDelete, "/api/v1/transactions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}

// ResetTransactions implements backend.Backend.
func (c *Client) ResetTransactions(ctx context.Context, ownerID string) (int64, error) {
	var result struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, ownerID, http.MethodDelete, "/api/v1/transactions", nil, &result); err != nil {
		return 0, fmt.Errorf("resetting transactions: %w", err)
	}
	return result.Deleted, nil
}

// ExportTransactions streams the XLSX export for r into w.
func (c *Client) ExportTransactions(ctx context.Context, ownerID string, r *backend.DateRange, w io.Writer) error {
	q := url.Values{}
	if r != nil {
		if !r.From.IsZero() {
			q.Set("from", r.From.Format("2006-01-02"))
		}
		if !r.To.IsZero() {
			q.Set("to", r.To.Format("2006-01-02"))
		}
	}
	path := "/api/v1/transactions/export"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.send(ctx, c.httpClient, ownerID, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("exporting transactions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("exporting transactions: %w", err)
	}
	return nil
}

// FetchBudgets implements backend.Backend.
func (c *Client) FetchBudgets(ctx context.Context, ownerID string) ([]models.Budget, error) {
	var result struct {
		Budgets []models.Budget `json:"budgets"`
	}
	if err := c.do(ctx, ownerID, http.MethodGet, "/api/v1/budgets", nil, &result); err != nil {
		return nil, fmt.Errorf("fetching budgets: %w", err)
	}
	if result.Budgets == nil {
		result.Budgets = []models.Budget{}
	}
	return result.Budgets, nil
}

// UpsertBudget implements backend.Backend.
func (c *Client) UpsertBudget(ctx context.Context, ownerID string, input models.BudgetInput) (*models.Budget, error) {
	var result struct {
		Budget *models.Budget `json:"budget"`
	}
	if err := c.do(ctx, ownerID, http.MethodPut, "/api/v1/budgets", input, &result); err != nil {
		return nil, fmt.Errorf("saving budget: %w", err)
	}
	return result.Budget, nil
}

// DeleteBudget implements backend.Backend.
func (c *Client) DeleteBudget(ctx context.Context, ownerID, id string) error {
	if err := c.do(ctx, ownerID, http.MethodDelete, "/api/v1/budgets/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting budget: %w", err)
	}
	return nil
}

// FetchInvestments implements backend.Backend.
func (c *Client) FetchInvestments(ctx context.Context, ownerID string) ([]models.Investment, error) {
	var result struct {
		Investments []models.Investment `json:"investments"`
	}
	if err := c.do(ctx, ownerID, http.MethodGet, "/api/v1/investments", nil, &result); err != nil {
		return nil, fmt.Errorf("fetching investments: %w", err)
	}
	if result.Investments == nil {
		result.Investments = []models.Investment{}
	}
	return result.Investments, nil
}

// RecordInvestment implements backend.Backend.
func (c *Client) RecordInvestment(ctx context.Context, ownerID string, input models.InvestmentInput) (*models.Investment, *models.Transaction, error) {
	body := investmentBody{
		Type:         input.Type,
		Name:         input.Name,
		Amount:       input.Amount.String(),
		Symbol:       input.Symbol,
		PurchaseDate: formatDate(input.PurchaseDate),
	}
	if input.Quantity != nil {
		s := input.Quantity.String()
		body.Quantity = &s
	}

	var result struct {
		Investment  *models.Investment  `json:"investment"`
		Transaction *models.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, ownerID, http.MethodPost, "/api/v1/investments", body, &result); err != nil {
		return nil, nil, fmt.Errorf("recording investment: %w", err)
	}
	return result.Investment, result.Transaction, nil
}

// DeleteInvestment implements backend.Backend.
func (c *Client) DeleteInvestment(ctx context.Context, ownerID, id string) error {
	if err := c.do(ctx, ownerID, http.MethodDelete, "/api/v1/investments/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting investment: %w", err)
	}
	return nil
}

// RecordActivity implements backend.Backend.
func (c *Client) RecordActivity(ctx context.Context, ownerID, activityType, description string) error {
	body := struct {
		ActivityType string `json:"activity_type"`
		Description  string `json:"description"`
	}{ActivityType: activityType, Description: description}
	if err := c.do(ctx, ownerID, http.MethodPost, "/api/v1/activity", body, nil); err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// do sends a JSON request and decodes a 2xx JSON response into out, if set.
func (c *Client) do(ctx context.Context, ownerID, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	resp, err := c.send(ctx, c.httpClient, ownerID, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// send performs an authenticated request. Non-2xx responses are closed and
// returned as *apperrors.AppError; transport failures as ErrUnavailable.
func (c *Client) send(ctx context.Context, hc *http.Client, ownerID, method, path string, body io.Reader) (*http.Response, error) {
	token, err := c.tokens(ownerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// decodeError rebuilds the server's AppError from its JSON error body.
func decodeError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error.Code == "" {
		sentinel := apperrors.ErrInternalServer
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			sentinel = apperrors.ErrUnauthorized
		case resp.StatusCode == http.StatusNotFound:
			sentinel = apperrors.ErrNotFound
		case resp.StatusCode >= 500:
			sentinel = apperrors.ErrUnavailable
		}
		return apperrors.Wrap(sentinel, errors.New("unexpected status "+resp.Status))
	}
	return apperrors.FromCode(payload.Error.Code, payload.Error.Message)
}
