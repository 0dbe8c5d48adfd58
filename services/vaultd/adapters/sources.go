package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fxvault/services/vaultd/oracle"
)

// Registry constructs oracle sources based on configuration.
type Registry struct {
	HTTPClient *http.Client
}

// NewRegistry builds a registry with sane defaults.
func NewRegistry() *Registry {
	return &Registry{HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

// Build creates a source from the supplied configuration.
func (r *Registry) Build(name, typ, endpoint, apiKey string, rates map[string]string) (oracle.Source, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "exchangerate":
		if strings.TrimSpace(endpoint) == "" {
			return nil, fmt.Errorf("exchangerate source requires endpoint")
		}
		return &exchangeRateSource{
			name:     label(name, "exchangerate"),
			client:   r.client(),
			endpoint: strings.TrimSpace(endpoint),
			apiKey:   strings.TrimSpace(apiKey),
		}, nil
	case "fixed":
		return newFixedSource(label(name, "fixed"), rates)
	default:
		return nil, fmt.Errorf("unknown oracle type %q", typ)
	}
}

func (r *Registry) client() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func label(name, fallback string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed != "" {
		return trimmed
	}
	return fallback
}

// exchangeRateSource queries a REST rate API shaped like the common
// exchangerate.host / frankfurter responses:
//
//	GET {endpoint}?base=EUR&symbols=USD -> {"base":"EUR","rates":{"USD":1.08}}
type exchangeRateSource struct {
	name     string
	client   *http.Client
	endpoint string
	apiKey   string
}

func (s *exchangeRateSource) Name() string { return s.name }

func (s *exchangeRateSource) Fetch(ctx context.Context, base, quote string) (oracle.Quote, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	endpoint, err := url.Parse(s.endpoint)
	if err != nil {
		return oracle.Quote{}, fmt.Errorf("parse endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("base", base)
	query.Set("symbols", quote)
	if s.apiKey != "" {
		query.Set("access_key", s.apiKey)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return oracle.Quote{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return oracle.Quote{}, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return oracle.Quote{}, fmt.Errorf("rate api status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]json.Number `json:"rates"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return oracle.Quote{}, fmt.Errorf("decode rate payload: %w", err)
	}
	raw, ok := payload.Rates[quote]
	if !ok {
		return oracle.Quote{}, fmt.Errorf("rate for %s/%s missing from response", base, quote)
	}
	rate, ok := new(big.Rat).SetString(raw.String())
	if !ok {
		return oracle.Quote{}, fmt.Errorf("unparseable rate %q", raw.String())
	}
	return oracle.Quote{Rate: rate, Timestamp: time.Now()}, nil
}

// fixedSource serves rates from static configuration, keyed BASE/QUOTE. It
// exists for development and integration environments without upstream
// connectivity.
type fixedSource struct {
	name  string
	rates map[string]*big.Rat
}

func newFixedSource(name string, raw map[string]string) (oracle.Source, error) {
	rates := make(map[string]*big.Rat, len(raw))
	for pair, value := range raw {
		rate, ok := new(big.Rat).SetString(strings.TrimSpace(value))
		if !ok || rate.Sign() <= 0 {
			return nil, fmt.Errorf("fixed source rate %q for %s is invalid", value, pair)
		}
		rates[strings.ToUpper(strings.TrimSpace(pair))] = rate
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("fixed source requires at least one rate")
	}
	return &fixedSource{name: name, rates: rates}, nil
}

func (s *fixedSource) Name() string { return s.name }

func (s *fixedSource) Fetch(_ context.Context, base, quote string) (oracle.Quote, error) {
	key := strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
	rate, ok := s.rates[key]
	if !ok {
		return oracle.Quote{}, fmt.Errorf("no fixed rate for %s", key)
	}
	return oracle.Quote{Rate: new(big.Rat).Set(rate), Timestamp: time.Now()}, nil
}
