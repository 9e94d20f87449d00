package middleware_http

import (
	"context"
	"fmt"
	"net/http"

	"product-api/internal/apperror"
)

const MsgRouteNotFound = "Route not found"

// Stage is one step of the request pipeline. It returns the request to hand to the
// next step, or an error that stops the pipeline.
type Stage func(w http.ResponseWriter, r *http.Request) (*http.Request, error)

// HandlerFunc is a route handler. It writes success responses only; errors are
// returned and rendered by TranslateError.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type errSlotKey struct{}

type errSlot struct {
	err error
}

// Pipeline runs its stages in order, then dispatches to mux. Every error, including a
// recovered panic, ends up in TranslateError.
type Pipeline struct {
	stages []Stage
	mux    *http.ServeMux
}

func NewPipeline(mux *http.ServeMux, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, mux: mux}
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			TranslateError(w, r, errFromRecover(rec))
		}
	}()

	for _, stage := range p.stages {
		next, err := stage(w, r)
		if err != nil {
			TranslateError(w, r, err)
			return
		}
		r = next
	}

	if _, pattern := p.mux.Handler(r); pattern == "" {
		TranslateError(w, r, apperror.NotFound(MsgRouteNotFound))
		return
	}

	slot := &errSlot{}
	r = r.WithContext(context.WithValue(r.Context(), errSlotKey{}, slot))
	p.mux.ServeHTTP(w, r)
	if slot.err != nil {
		TranslateError(w, r, slot.err)
	}
}

// Route adapts h to the mux. Route stages run before h, after the pipeline stages.
func Route(h HandlerFunc, stages ...Stage) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := runRoute(w, r, h, stages)
		if err == nil {
			return
		}
		if slot, ok := r.Context().Value(errSlotKey{}).(*errSlot); ok {
			slot.err = err
			return
		}
		TranslateError(w, r, err)
	})
}

func runRoute(w http.ResponseWriter, r *http.Request, h HandlerFunc, stages []Stage) error {
	for _, stage := range stages {
		next, err := stage(w, r)
		if err != nil {
			return err
		}
		r = next
	}
	return h(w, r)
}

// errFromRecover converts a panic value into an error.
func errFromRecover(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}
