// Package rest reads and seeds products through a PostgREST-style HTTP API,
// the protocol spoken by hosted backend-as-a-service databases.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/repository"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/httpclient"
)

const remoteName = "product backend"

// Doer executes HTTP requests. *httpclient.Client and
// *httpclient.CircuitBreakerClient both satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback answers for the backend while its circuit breaker is
// open, replacing the breaker's error with apperrors.ErrServiceUnavail.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable(remoteName + " is temporarily unavailable")
}

// ProductRepository implements repository.ProductRepository over REST.
type ProductRepository struct {
	baseURL string
	client  Doer
}

// NewProductRepository creates a repository rooted at baseURL, for example
// "https://project.example.co/rest/v1".
func NewProductRepository(baseURL string, client Doer) *ProductRepository {
	return &ProductRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []repository.Row
	if err := r.get(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("product", id)
	}

	p := rows[0].Product()
	return &p, nil
}

// GetByCategory returns up to repository.RelatedLimit products in category,
// excluding excludeID.
func (r *ProductRepository) GetByCategory(ctx context.Context, category, excludeID string) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("category", "eq."+category)
	q.Set("id", "neq."+excludeID)
	q.Set("order", "id")
	q.Set("limit", strconv.Itoa(repository.RelatedLimit))

	var rows []repository.Row
	if err := r.get(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list products in category %s: %w", category, err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.Product())
	}
	if len(products) > repository.RelatedLimit {
		products = products[:repository.RelatedLimit]
	}
	return products, nil
}

// SeedIfEmpty inserts products in one bulk request when the backend reports
// no existing rows.
func (r *ProductRepository) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	var existing []struct {
		ID string `json:"id"`
	}
	if err := r.get(ctx, q, &existing); err != nil {
		return false, fmt.Errorf("check products: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	rows := make([]repository.Row, len(products))
	for i, p := range products {
		rows[i] = repository.RowFromProduct(p)
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return false, fmt.Errorf("marshal seed rows: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/products", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build seed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("seed products: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, apperrors.Wrap(responseError(resp), "seed products")
	}
	_ = resp.Body.Close()
	return true, nil
}

func (r *ProductRepository) get(ctx context.Context, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/products?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError translates a non-2xx response. PostgREST answers 404 for an
// unknown table or route, never for a missing row (that is an empty array),
// so a 404 is reported as a backend failure rather than apperrors.ErrNotFound.
func responseError(resp *http.Response) error {
	if resp.StatusCode == http.StatusConflict {
		return conflictError(resp)
	}
	err := httpclient.ParseResponseError(resp, remoteName)
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s products endpoint unavailable (status 404): %s", remoteName, err.Error())
	}
	return err
}

// uniqueViolation is the SQLSTATE PostgREST forwards for a duplicate key.
const uniqueViolation = "23505"

var duplicateKey = regexp.MustCompile(`Key \(([^)]+)\)=\(([^)]*)\)`)

// conflictError maps a unique violation to apperrors.ErrAlreadyExists, naming
// the key from the details ("Key (id)=(jump-rope) already exists."). Other
// conflicts stay apperrors.ErrConflict.
func conflictError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Conflict(fmt.Sprintf("%s: status 409 (failed to read body: %v)", remoteName, err))
	}

	var re httpclient.RemoteError
	if json.Unmarshal(body, &re) == nil && re.Code == uniqueViolation {
		field, value := "id", ""
		if m := duplicateKey.FindStringSubmatch(re.Details); m != nil {
			field, value = m[1], m[2]
		}
		return apperrors.AlreadyExists("product", field, value)
	}

	message := re.Message
	if message == "" {
		message = string(body)
	}
	return apperrors.Conflict(remoteName + ": " + message)
}
