package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/ledger"
	"ledgerview/internal/model"
	"ledgerview/internal/presenter"
)

const maxPageSize = 100

func (s *Server) filter(r *http.Request) ledger.Filter {
	return ledger.Filter{
		Account: chain.NormalizeAddress(chi.URLParam(r, "account")),
		Symbol:  strings.TrimSpace(r.URL.Query().Get("symbol")),
	}
}

// listTransactions returns one page of the account history as a list view.
// Ledger failures are reported inside the view, not as an HTTP error.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter := s.filter(r)
	if filter.Account == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("account is required")))
		return
	}

	size := s.opts.PageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxPageSize {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("page_size must be between 1 and %d", maxPageSize)))
			return
		}
		size = parsed
	}

	cursor := model.Cursor(r.URL.Query().Get("cursor"))
	page, err := s.source.FetchPage(r.Context(), filter, cursor, size)
	if errors.Is(err, ledger.ErrInvalidCursor) {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err != nil {
		s.logger.Warn("fetch page failed", zap.String("account", filter.Account), zap.Error(err))
	}

	list := presenter.NewList(filter.Account, s.lookup, s.projector, s.opts.Decimals)
	view := list.Build(presenter.QueryState{Err: err, Page: page})
	if err := render.Render(w, r, &ViewResponse{Account: filter.Account, Symbol: filter.Symbol, View: view}); err != nil {
		render.Render(w, r, ErrInternalServerError(err))
	}
}

// exportTransactions downloads the complete account history as CSV.
func (s *Server) exportTransactions(w http.ResponseWriter, r *http.Request) {
	filter := s.filter(r)
	if filter.Account == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("account is required")))
		return
	}

	doc, ok, err := s.exporter.Export(r.Context(), filter)
	if err != nil {
		s.logger.Warn("export failed", zap.String("account", filter.Account), zap.Error(err))
		render.Render(w, r, ErrBadGateway(err))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		s.logger.Debug("write export", zap.Error(err))
	}
}
