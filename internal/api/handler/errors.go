package handler

import (
	"errors"
	"net/http"

	"ml-pipelines/internal/components"
	"ml-pipelines/internal/config"
	"ml-pipelines/internal/graph"
	"ml-pipelines/internal/hypertune"
	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/publish"
	"ml-pipelines/internal/sampling"
	"ml-pipelines/internal/service"
	"ml-pipelines/internal/store"
	"ml-pipelines/pkg/apperrors"
)

// classify maps err to a response. Missing server configuration maps to 503
// even when joined with definition errors, definition problems the caller can
// fix map to 400, unknown compilations to 404 and anything else to 500.
func classify(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var app *apperrors.AppError
	if errors.As(err, &app) {
		return app
	}
	switch {
	case errors.Is(err, config.ErrMissingConfig),
		errors.Is(err, components.ErrMissingImage),
		errors.Is(err, publish.ErrDisabled):
		return apperrors.New(http.StatusServiceUnavailable, err.Error(), err)
	case errors.Is(err, graph.ErrBinding),
		errors.Is(err, graph.ErrStructural),
		errors.Is(err, sampling.ErrInvalidSplit),
		errors.Is(err, pipelines.ErrInvalidParams),
		errors.Is(err, hypertune.ErrInvalidSettings),
		errors.Is(err, service.ErrUnknownPreset):
		return apperrors.New(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.New(http.StatusNotFound, err.Error(), err)
	default:
		return apperrors.Internal(err)
	}
}
