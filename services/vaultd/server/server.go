package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"basketvault/core/host"
	"basketvault/core/types"
	"basketvault/native/vault"
)

// Server exposes the vault's query surface and transaction submission over
// HTTP, backed by the in-process execution host.
type Server struct {
	host   *host.Host
	logger *slog.Logger

	registry     *prometheus.Registry
	transactions *prometheus.CounterVec

	router http.Handler
}

// New constructs a configured HTTP server around the host.
func New(h *host.Host, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		host:     h,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	srv.transactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultd",
		Name:      "transactions_total",
		Help:      "Vault transactions processed, labelled by operation and result.",
	}, []string{"op", "result"})
	srv.registry.MustRegister(srv.transactions)
	srv.router = srv.buildRouter()
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Route("/v1", func(api chi.Router) {
		api.Get("/vault/config", s.GetConfig)
		api.Get("/vault/state", s.GetState)
		api.Post("/vault/mint", s.Mint)
		api.Post("/vault/burn", s.Burn)
		api.Post("/token/send", s.TokenSend)
		api.Post("/accounts/{address}/fund", s.FundAccount)
		api.Get("/accounts/{address}/balance", s.GetBalance)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return otelhttp.NewHandler(r, "vaultd")
}

// GetConfig serves the config projection.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	s.query(w, vault.QueryMsg{GetConfig: &vault.GetConfigMsg{}})
}

// GetState serves the vault state projection.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.query(w, vault.QueryMsg{GetState: &vault.GetStateMsg{}})
}

func (s *Server) query(w http.ResponseWriter, msg vault.QueryMsg) {
	payload, err := s.host.Query(msg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

type mintRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

// Mint submits a deposit transaction: the caller's base-denom funds are
// attached to the call and the resulting events are returned.
func (s *Server) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	caller, err := vault.ParseAddress(req.Caller)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(req.Amount), 10)
	if !ok || amount.Sign() <= 0 {
		http.Error(w, "amount must be a positive integer", http.StatusBadRequest)
		return
	}
	baseDenom, err := s.baseDenom()
	if err != nil {
		s.writeError(w, err)
		return
	}
	funds := []vault.Coin{{Denom: baseDenom, Amount: amount}}
	emitted, err := s.host.Execute(caller, funds, vault.ExecuteMsg{Mint: &vault.MintMsg{}})
	s.observe("mint", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeEvents(w, emitted)
}

type burnRequest struct {
	Caller string `json:"caller"`
}

// Burn submits a redemption transaction for the caller.
func (s *Server) Burn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	caller, err := vault.ParseAddress(req.Caller)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	emitted, err := s.host.Execute(caller, nil, vault.ExecuteMsg{Burn: &vault.BurnMsg{}})
	s.observe("burn", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeEvents(w, emitted)
}

type tokenSendRequest struct {
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Amount string `json:"amount"`
}

// TokenSend moves claim tokens between holders. An empty recipient sends to
// the vault itself, the step that precedes a burn.
func (s *Server) TokenSend(w http.ResponseWriter, r *http.Request) {
	var req tokenSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	from, err := vault.ParseAddress(req.From)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to := s.host.ContractAddress()
	if strings.TrimSpace(req.To) != "" {
		if to, err = vault.ParseAddress(req.To); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(req.Amount), 10)
	if !ok || amount.Sign() <= 0 {
		http.Error(w, "amount must be a positive integer", http.StatusBadRequest)
		return
	}
	token, err := s.companionToken()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.host.TokenSend(token, from, to, amount); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fundRequest struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// FundAccount credits an account with native funds. Dev faucet; the real
// deployment gets funded by the chain, not by this service.
func (s *Server) FundAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := vault.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(req.Amount), 10)
	if !ok || amount.Sign() <= 0 {
		http.Error(w, "amount must be a positive integer", http.StatusBadRequest)
		return
	}
	denom := strings.TrimSpace(req.Denom)
	if denom == "" {
		http.Error(w, "denom required", http.StatusBadRequest)
		return
	}
	s.host.FundAccount(addr, denom, amount)
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance reports an account's balance for the denom query parameter.
func (s *Server) GetBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := vault.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	denom := strings.TrimSpace(r.URL.Query().Get("denom"))
	if denom == "" {
		http.Error(w, "denom query parameter required", http.StatusBadRequest)
		return
	}
	balance, err := s.host.BankBalance(addr, denom)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"address": addr.Hex(),
		"denom":   denom,
		"amount":  balance.String(),
	})
}

func (s *Server) baseDenom() (string, error) {
	cfg, err := s.vaultConfig()
	if err != nil {
		return "", err
	}
	return cfg.BaseDenom, nil
}

func (s *Server) companionToken() (vault.Address, error) {
	cfg, err := s.vaultConfig()
	if err != nil {
		return vault.Address{}, err
	}
	if cfg.CompanionToken == "" {
		return vault.Address{}, vault.ErrTokenNotRegistered
	}
	return vault.ParseAddress(cfg.CompanionToken)
}

func (s *Server) vaultConfig() (*vault.ConfigResponse, error) {
	payload, err := s.host.Query(vault.QueryMsg{GetConfig: &vault.GetConfigMsg{}})
	if err != nil {
		return nil, err
	}
	cfg := &vault.ConfigResponse{}
	if err := json.Unmarshal(payload, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Server) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.transactions.WithLabelValues(op, result).Inc()
}

func (s *Server) writeEvents(w http.ResponseWriter, emitted []*types.Event) {
	if emitted == nil {
		emitted = []*types.Event{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"events": emitted})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, vault.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, vault.ErrZeroDeposit),
		errors.Is(err, vault.ErrZeroSupply),
		errors.Is(err, vault.ErrNothingToRedeem),
		errors.Is(err, vault.ErrRedeemExceedsSupply),
		errors.Is(err, vault.ErrRedemptionPending),
		errors.Is(err, vault.ErrRateUnavailable),
		errors.Is(err, host.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, vault.ErrNotInstantiated),
		errors.Is(err, vault.ErrTokenNotRegistered):
		status = http.StatusConflict
	}
	s.logger.Error("request failed", "error", err)
	http.Error(w, err.Error(), status)
}
