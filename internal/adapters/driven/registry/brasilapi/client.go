// Package brasilapi implements the registry client against a
// BrasilAPI-compatible CNPJ endpoint.
//
// The public registry is unauthenticated but rate limited, so the client
// throttles proactively and coalesces concurrent identical lookups into
// one physical request.
package brasilapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
	"github.com/planilha-labs/planilha-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.RegistryClient = (*Client)(nil)

const (
	// DefaultBaseURL is the public BrasilAPI endpoint.
	DefaultBaseURL = "https://brasilapi.com.br/api"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRate is the proactive throttle (requests per second).
	DefaultRate = 3.0
)

// Options configure the registry client. Zero values take defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client looks up CNPJ records over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter

	mu       sync.Mutex
	inflight map[string]*lookupCall
}

// lookupCall is one in-flight physical lookup that multiple logical
// callers may wait on.
type lookupCall struct {
	done chan struct{}
	rec  *domain.CompanyRecord
	err  error
}

// NewClient creates a registry client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRate
	}
	// Copy a caller-supplied client so setting the timeout does not
	// mutate shared state.
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		hc = &cp
	}
	hc.Timeout = opts.Timeout
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		inflight: make(map[string]*lookupCall),
	}
}

// Lookup fetches the company record for a tax id in any rendering.
// Concurrent lookups for the same id share one physical request.
func (c *Client) Lookup(ctx context.Context, taxID string) (*domain.CompanyRecord, error) {
	cnpj := domain.NormalizeCNPJ(taxID)
	if !domain.IsValidCNPJ(cnpj) {
		return nil, &domain.LookupError{
			Kind:    domain.LookupInvalidFormat,
			TaxID:   cnpj,
			Message: "not a valid CNPJ",
		}
	}

	c.mu.Lock()
	if call, ok := c.inflight[cnpj]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-call.done:
			return call.rec, call.err
		}
	}
	call := &lookupCall{done: make(chan struct{})}
	c.inflight[cnpj] = call
	c.mu.Unlock()

	call.rec, call.err = c.fetch(ctx, cnpj)
	c.mu.Lock()
	delete(c.inflight, cnpj)
	c.mu.Unlock()
	close(call.done)

	return call.rec, call.err
}

// fetch performs the physical HTTP lookup.
func (c *Client) fetch(ctx context.Context, cnpj string) (*domain.CompanyRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/cnpj/v1/%s", c.baseURL, cnpj)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	logger.Debug("brasilapi: GET %s", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.LookupError{
			Kind:    domain.LookupUpstream,
			TaxID:   cnpj,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, cnpj); err != nil {
		return nil, err
	}

	var payload cnpjResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.LookupError{
			Kind:    domain.LookupUpstream,
			TaxID:   cnpj,
			Message: fmt.Sprintf("decode response: %v", err),
		}
	}
	return payload.toRecord(cnpj), nil
}

// checkStatus maps non-200 responses onto the lookup error taxonomy.
func checkStatus(resp *http.Response, cnpj string) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return &domain.LookupError{
			Kind:    domain.LookupNotFound,
			TaxID:   cnpj,
			Message: "CNPJ not found in registry",
		}
	case http.StatusTooManyRequests:
		return &domain.LookupError{
			Kind:    domain.LookupRateLimited,
			TaxID:   cnpj,
			Message: "registry rate limit exceeded",
		}
	case http.StatusBadRequest:
		return &domain.LookupError{
			Kind:    domain.LookupInvalidFormat,
			TaxID:   cnpj,
			Message: "registry rejected tax id format",
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.LookupError{
			Kind:    domain.LookupUpstream,
			TaxID:   cnpj,
			Message: (&APIError{StatusCode: resp.StatusCode, Body: string(body), URL: resp.Request.URL.String()}).Error(),
		}
	}
}

// cnpjResponse mirrors the BrasilAPI /cnpj/v1 response shape.
type cnpjResponse struct {
	RazaoSocial              string  `json:"razao_social"`
	NomeFantasia             string  `json:"nome_fantasia"`
	DescricaoSituacao        string  `json:"descricao_situacao_cadastral"`
	DataInicioAtividade      string  `json:"data_inicio_atividade"`
	NaturezaJuridica         string  `json:"natureza_juridica"`
	CNAEFiscalDescricao      string  `json:"cnae_fiscal_descricao"`
	CapitalSocial            float64 `json:"capital_social"`
	Logradouro               string  `json:"logradouro"`
	Numero                   string  `json:"numero"`
	Complemento              string  `json:"complemento"`
	Bairro                   string  `json:"bairro"`
	Municipio                string  `json:"municipio"`
	UF                       string  `json:"uf"`
	CEP                      string  `json:"cep"`
	Email                    string  `json:"email"`
	DDDTelefone1             string  `json:"ddd_telefone_1"`
	DescricaoTipoLogradouro  string  `json:"descricao_tipo_de_logradouro"`
}

// toRecord converts the wire shape into the domain record.
func (r *cnpjResponse) toRecord(cnpj string) *domain.CompanyRecord {
	street := r.Logradouro
	if r.DescricaoTipoLogradouro != "" {
		street = strings.TrimSpace(r.DescricaoTipoLogradouro + " " + r.Logradouro)
	}
	return &domain.CompanyRecord{
		CNPJ:         cnpj,
		LegalName:    r.RazaoSocial,
		TradeName:    r.NomeFantasia,
		Status:       r.DescricaoSituacao,
		OpenedAt:     r.DataInicioAtividade,
		LegalNature:  r.NaturezaJuridica,
		MainActivity: r.CNAEFiscalDescricao,
		ShareCapital: r.CapitalSocial,
		Street:       street,
		Number:       r.Numero,
		Complement:   r.Complemento,
		District:     r.Bairro,
		City:         r.Municipio,
		State:        r.UF,
		ZipCode:      r.CEP,
		Email:        r.Email,
		Phone:        r.DDDTelefone1,
	}
}
