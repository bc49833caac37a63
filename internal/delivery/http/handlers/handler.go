package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/LavaJover/shvark-escrow-service/internal/auth"
	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/tokens"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

var (
	validate     *validator.Validate
	onceValidate sync.Once
)

func getValidator() *validator.Validate {
	onceValidate.Do(func() {
		validate = validator.New()
	})
	return validate
}

type HTTPEscrowHandler struct {
	OrderUsecase  order.OrderUsecase
	EscrowUsecase escrow.EscrowUsecase
	LedgerUsecase ledger.LedgerUsecase
	Tokens        *tokens.Registry
	Verifier      *auth.Verifier
}

func NewHTTPEscrowHandler(
	orderUsecase order.OrderUsecase,
	escrowUsecase escrow.EscrowUsecase,
	ledgerUsecase ledger.LedgerUsecase,
	registry *tokens.Registry,
	verifier *auth.Verifier,
) *HTTPEscrowHandler {
	return &HTTPEscrowHandler{
		OrderUsecase:  orderUsecase,
		EscrowUsecase: escrowUsecase,
		LedgerUsecase: ledgerUsecase,
		Tokens:        registry,
		Verifier:      verifier,
	}
}

// decode reads a JSON body into dst and validates its tags. An empty body is
// accepted for requests whose fields are all optional.
func decode(r *http.Request, dst any) error {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
		}
	}
	if err := getValidator().Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// StatusFor maps the domain error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPEscrowHandler) writeError(w http.ResponseWriter, r *http.Request, err error, resp response.ErrorResponse) {
	status := StatusFor(err)
	resp.Reason = domain.Reason(err)
	if errors.Is(err, auth.ErrInvalidToken) {
		resp.Reason = "unauthenticated"
	}
	resp.Error = err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if !errors.Is(err, domain.ErrLedgerInvariant) {
			resp.Error = "internal error"
		}
	}
	writeJSON(w, status, resp)
}

func (h *HTTPEscrowHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.writeError(w, r, err, response.ErrorResponse{})
}

// pageParams reads limit and cursor from the query string.
func pageParams(r *http.Request) (int, *domain.Cursor, error) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			return 0, nil, fmt.Errorf("%w: limit must be within 1..%d", domain.ErrInvalidInput, maxLimit)
		}
		limit = n
	}
	cursor, err := DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		return 0, nil, err
	}
	return limit, cursor, nil
}

// EncodeCursor renders a keyset position as an opaque token.
func EncodeCursor(c domain.Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (*domain.Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", domain.ErrInvalidInput)
	}
	var c domain.Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return nil, fmt.Errorf("%w: malformed cursor", domain.ErrInvalidInput)
	}
	return &c, nil
}

func (h *HTTPEscrowHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func (h *HTTPEscrowHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	list := h.Tokens.List()
	out := make([]response.TokenResponse, 0, len(list))
	for _, t := range list {
		out = append(out, response.TokenResponse{
			Symbol:   t.Symbol,
			Address:  t.Address.Hex(),
			Decimals: t.Decimals,
			Native:   t.Native(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
