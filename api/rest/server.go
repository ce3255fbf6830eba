// Package rest exposes the order service over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"kestrel/domain/book"
	"kestrel/service"
)

type Server struct {
	mux *http.ServeMux
	svc *service.OrderService
	log zerolog.Logger
}

func New(svc *service.OrderService, log zerolog.Logger) *Server {
	s := &Server{mux: http.NewServeMux(), svc: svc, log: log}
	s.mux.HandleFunc("POST /v1/orders", s.handleSubmit)
	s.mux.HandleFunc("GET /v1/orders/{id}", s.handleStatus)
	s.mux.HandleFunc("DELETE /v1/orders/{id}", s.handleCancel)
	s.mux.HandleFunc("GET /v1/depth/{symbol}", s.handleDepth)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

type submitRequest struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Price  int64  `json:"price"`
	Qty    int64  `json:"qty"`
}

type submitResponse struct {
	OrderID uint64       `json:"order_id"`
	Trades  []book.Trade `json:"trades,omitempty"`
}

type orderResponse struct {
	OrderID      uint64 `json:"order_id"`
	Symbol       string `json:"symbol,omitempty"`
	Side         string `json:"side"`
	Price        int64  `json:"price"`
	OriginalQty  int64  `json:"original_qty"`
	RemainingQty int64  `json:"remaining_qty"`
	Cancelled    bool   `json:"cancelled"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Symbol == "" {
		httpError(w, http.StatusBadRequest, "symbol required")
		return
	}
	side, err := book.ParseSide(req.Side)
	if err != nil {
		httpError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}

	id, trades, err := s.svc.Submit(req.Symbol, side, req.Price, req.Qty)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{OrderID: id, Trades: trades})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	snap, err := s.svc.Status(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(snap))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	snap, err := s.svc.Cancel(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(snap))
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Depth(r.PathValue("symbol")))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, book.ErrOrderNotFound):
		httpError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, book.ErrInvalidArgument):
		httpError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		httpError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOrderResponse(snap book.Snapshot) orderResponse {
	return orderResponse{
		OrderID:      snap.ID,
		Side:         snap.Side.String(),
		Price:        snap.Price,
		OriginalQty:  snap.OriginalQty,
		RemainingQty: snap.RemainingQty,
		Cancelled:    snap.Cancelled,
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "order id must be numeric")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
