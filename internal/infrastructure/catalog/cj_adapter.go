package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
)

const (
	// maxCJResponseSize limits the response body size to prevent memory exhaustion
	maxCJResponseSize = 10 * 1024 * 1024 // 10MB max response

	// cjTokenLifetime is how long an access token is reused before refreshing
	cjTokenLifetime = time.Hour

	cjPageSize = 20
)

// cjResaleMarkup prices CJ products for resale over their supplier cost
var cjResaleMarkup = decimal.NewFromFloat(3.2)

// CJConfig holds CJ Dropshipping API credentials
type CJConfig struct {
	Email          string
	APIKey         string
	BaseURL        string // e.g. https://developers.cjdropshipping.com/api2.0/v1
	TimeoutSeconds int
}

// Validate validates the CJ configuration
func (c *CJConfig) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("cj: email is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("cj: api key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("cj: base url is required")
	}
	return nil
}

// CJAdapter sources products from the CJ Dropshipping API. Tokens are
// cached and refreshed lazily; product pages are fetched on demand as the
// iterator advances.
type CJAdapter struct {
	config     *CJConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu           sync.Mutex
	token        string
	tokenExpires time.Time
}

// NewCJAdapter creates a new CJ Dropshipping adapter
func NewCJAdapter(config *CJConfig, logger *zap.Logger) (*CJAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &CJAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Products implements catalog.Source
func (a *CJAdapter) Products(ctx context.Context) (catalog.Iterator, error) {
	if _, err := a.accessToken(ctx); err != nil {
		return nil, err
	}
	return &cjIterator{adapter: a, page: 1}, nil
}

// accessToken returns a cached token, authenticating when it has expired
func (a *CJAdapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExpires) {
		return a.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"email":    a.config.Email,
		"password": a.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("cj: failed to marshal auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/authentication/getAccessToken", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("cj: failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := a.do(req)
	if err != nil {
		return "", err
	}

	var auth cjAuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return "", fmt.Errorf("cj: failed to decode auth response: %w", err)
	}
	if auth.Code != http.StatusOK || auth.Data.AccessToken == "" {
		return "", fmt.Errorf("cj: authentication rejected: %s", auth.Message)
	}

	a.token = auth.Data.AccessToken
	a.tokenExpires = time.Now().Add(cjTokenLifetime)
	a.logger.Debug("CJ access token refreshed")
	return a.token, nil
}

// fetchPage retrieves one page of the product list
func (a *CJAdapter) fetchPage(ctx context.Context, page int) ([]catalog.Product, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("pageNum", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(cjPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/product/list?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("cj: failed to create list request: %w", err)
	}
	req.Header.Set("CJ-Access-Token", token)
	req.Header.Set("Accept", "application/json")

	body, err := a.do(req)
	if err != nil {
		return nil, err
	}

	var list cjProductListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("cj: failed to decode product list: %w", err)
	}
	if list.Code != http.StatusOK {
		return nil, fmt.Errorf("cj: product list rejected: %s", list.Message)
	}

	products := make([]catalog.Product, 0, len(list.Data.List))
	for _, item := range list.Data.List {
		p, err := a.convertProduct(item)
		if err != nil {
			a.logger.Debug("Skipping unusable CJ product",
				zap.String("pid", item.PID),
				zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// convertProduct maps a CJ listing onto the domain product, pricing it at
// the resale markup. Products without a usable price are rejected.
func (a *CJAdapter) convertProduct(item cjProduct) (catalog.Product, error) {
	cost, err := valueobject.NewMoneyFromString(item.SellPrice, valueobject.USD)
	if err != nil || !cost.IsPositive() {
		return catalog.Product{}, fmt.Errorf("cj: product %s has no usable price", item.PID)
	}
	resale := cost.Multiply(cjResaleMarkup).Round(2)

	name := item.ProductNameEn
	if len(name) > 100 {
		name = name[:100]
	}

	p, err := catalog.NewProduct(item.PID, name, cost, resale,
		fmt.Sprintf("https://cjdropshipping.com/product/%s.html", item.PID))
	if err != nil {
		return catalog.Product{}, err
	}
	return p.WithNiche(categorize(name)).WithImage(item.ProductImage), nil
}

// do executes a request and returns the body, mapping transport and HTTP
// failures to errors.
func (a *CJAdapter) do(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cj: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCJResponseSize))
	if err != nil {
		return nil, fmt.Errorf("cj: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cj: HTTP %d from %s", resp.StatusCode, req.URL.Path)
	}
	return body, nil
}

// cjIterator pages through the CJ product list lazily
type cjIterator struct {
	adapter *CJAdapter
	page    int
	buf     []catalog.Product
	pos     int
	done    bool
}

// Next implements catalog.Iterator
func (it *cjIterator) Next(ctx context.Context) (catalog.Product, bool, error) {
	for {
		if it.pos < len(it.buf) {
			p := it.buf[it.pos]
			it.pos++
			return p, true, nil
		}
		if it.done {
			return catalog.Product{}, false, nil
		}

		products, err := it.adapter.fetchPage(ctx, it.page)
		if err != nil {
			return catalog.Product{}, false, err
		}
		if len(products) == 0 {
			it.done = true
			continue
		}
		it.page++
		it.buf = products
		it.pos = 0
	}
}

// Close implements catalog.Iterator
func (it *cjIterator) Close() error { return nil }

var _ catalog.Source = (*CJAdapter)(nil)
