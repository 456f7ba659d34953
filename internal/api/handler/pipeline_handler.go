package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"ml-pipelines/internal/compiler"
	"ml-pipelines/internal/model"
	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/service"
	"ml-pipelines/internal/store"
	"ml-pipelines/pkg/apperrors"
	"ml-pipelines/pkg/logger"
)

const pipelinesPrefix = "/api/v1/pipelines/"

// Handler serves the compile API.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// CompileCovertype compiles the covertype training pipeline
// @Summary Compile the covertype pipeline
// @Description Build the split, tune, train and evaluate graph and compile it to an Argo Workflow. Omitted fields keep their defaults.
// @Tags pipelines
// @Accept json
// @Produce json
// @Param pipeline body model.CovertypeRequest true "Covertype parameters"
// @Success 201 {object} model.CompileResponse "Pipeline compiled"
// @Failure 400 {object} model.ErrorResponse "Invalid pipeline definition"
// @Failure 503 {object} model.ErrorResponse "Publishing not configured"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /pipelines/covertype [post]
func (h *Handler) CompileCovertype(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCovertype(r.Body)
	if err != nil {
		writeError(w, apperrors.BadRequest("Invalid JSON payload"), "")
		return
	}
	res, err := h.svc.Covertype(req.CovertypeParams)
	h.finish(w, r, res, err, req.Publish)
}

// covertypeBody detects whether the threshold was sent, since zero is a
// valid threshold.
type covertypeBody struct {
	model.CovertypeRequest
	Threshold *float64 `json:"evaluation_metric_threshold"`
}

// decodeCovertype decodes a request onto zero values so that nested
// documents given by the caller replace the defaults instead of merging
// into them. Omitted fields take their defaults when the graph is built.
func decodeCovertype(body io.Reader) (model.CovertypeRequest, error) {
	var b covertypeBody
	if err := json.NewDecoder(body).Decode(&b); err != nil {
		return model.CovertypeRequest{}, err
	}
	req := b.CovertypeRequest
	req.Threshold = pipelines.CovertypeDefaults().Threshold
	if b.Threshold != nil {
		req.Threshold = *b.Threshold
	}
	return req, nil
}

// CompileTFX compiles a TFX pipeline preset
// @Summary Compile a TFX pipeline
// @Description Compile the covertype or cifar10 TFX preset using the server's environment.
// @Tags pipelines
// @Accept json
// @Produce json
// @Param pipeline body model.TFXRequest true "TFX preset"
// @Success 201 {object} model.CompileResponse "Pipeline compiled"
// @Failure 400 {object} model.ErrorResponse "Invalid pipeline definition"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /pipelines/tfx [post]
func (h *Handler) CompileTFX(w http.ResponseWriter, r *http.Request) {
	var req model.TFXRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.BadRequest("Invalid JSON payload"), "")
		return
	}
	res, err := h.svc.TFX(req)
	h.finish(w, r, res, err, req.Publish)
}

// finish records the outcome of a compilation and writes the response.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, res *service.Result, err error, publish bool) {
	if err != nil {
		id := ""
		if res != nil {
			c, serr := h.svc.RecordFailure(res, err)
			if serr != nil {
				logger.Error("failed to record compilation failure", "error", serr)
			} else {
				id = c.ID
			}
		}
		writeError(w, classify(err), id)
		return
	}

	c, err := h.svc.Record(r.Context(), res, publish)
	if err != nil {
		if c == nil {
			writeError(w, apperrors.Internal(err), "")
			return
		}
		writeError(w, classify(err), c.ID)
		return
	}

	writeJSON(w, http.StatusCreated, model.CompileResponse{
		ID:           c.ID,
		Pipeline:     c.Pipeline,
		Name:         c.Name,
		Status:       c.Status,
		GraphHash:    c.GraphHash,
		Steps:        len(res.Graph.Steps),
		PublishedURI: c.PublishedURI,
		CreatedAt:    c.CreatedAt,
	})
}

// ListPipelines lists stored compilations
// @Summary List compilations
// @Description Get all compilations, newest first
// @Tags pipelines
// @Produce json
// @Param pipeline query string false "Filter by pipeline kind (covertype, tfx)"
// @Success 200 {array} model.CompilationSummary "List of compilations"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /pipelines [get]
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	list, err := store.ListCompilations(r.URL.Query().Get("pipeline"))
	if err != nil {
		writeError(w, apperrors.Internal(err), "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetPipeline retrieves a compilation
// @Summary Get compilation
// @Description Retrieve the details of a compilation
// @Tags pipelines
// @Produce json
// @Param id path string true "Compilation ID"
// @Success 200 {object} model.Compilation "Compilation details"
// @Failure 400 {object} model.ErrorResponse "Invalid compilation ID"
// @Failure 404 {object} model.ErrorResponse "Compilation not found"
// @Router /pipelines/{id} [get]
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "")
	if !ok {
		return
	}
	c, err := store.GetCompilation(id)
	if err != nil {
		writeError(w, classify(err), "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetWorkflow returns the compiled workflow document
// @Summary Get compiled workflow
// @Description Download the Argo Workflow of a compilation as YAML, or JSON with format=json
// @Tags pipelines
// @Produce application/yaml
// @Produce json
// @Param id path string true "Compilation ID"
// @Param format query string false "yaml (default) or json"
// @Success 200 {string} string "Workflow document"
// @Failure 404 {object} model.ErrorResponse "Compilation not found"
// @Failure 409 {object} model.ErrorResponse "Compilation has no workflow"
// @Router /pipelines/{id}/workflow [get]
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/workflow")
	if !ok {
		return
	}
	c, err := store.GetCompilation(id)
	if err != nil {
		writeError(w, classify(err), "")
		return
	}
	if c.Workflow == "" {
		writeError(w, apperrors.New(http.StatusConflict, "compilation "+id+" has no workflow", nil), id)
		return
	}

	if r.URL.Query().Get("format") != "json" {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write([]byte(c.Workflow))
		return
	}
	wf, err := compiler.Unmarshal([]byte(c.Workflow))
	if err != nil {
		writeError(w, apperrors.Internal(err), id)
		return
	}
	data, err := compiler.MarshalJSON(wf)
	if err != nil {
		writeError(w, apperrors.Internal(err), id)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// GetPipelineErrors retrieves errors for a compilation
// @Summary Get compilation errors
// @Description Retrieve the build, compile and publish errors of a compilation
// @Tags pipelines
// @Produce json
// @Param id path string true "Compilation ID"
// @Success 200 {object} map[string]interface{} "Compilation errors"
// @Failure 400 {object} model.ErrorResponse "Invalid compilation ID"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /pipelines/{id}/errors [get]
func (h *Handler) GetPipelineErrors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/errors")
	if !ok {
		return
	}
	errs, err := store.GetCompileErrors(id)
	if err != nil {
		writeError(w, apperrors.Internal(err), "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"compilation_id": id,
		"errors":         errs,
		"count":          len(errs),
	})
}

// SamplingQuery renders split queries
// @Summary Generate sampling queries
// @Description Render the deterministic hash-partition queries for a table, from a split plan or a single lot selection
// @Tags sampling
// @Accept json
// @Produce json
// @Param request body model.SamplingQueryRequest true "Table and lots"
// @Success 200 {object} model.SamplingQueryResponse "Rendered queries"
// @Failure 400 {object} model.ErrorResponse "Invalid split"
// @Router /sampling/query [post]
func (h *Handler) SamplingQuery(w http.ResponseWriter, r *http.Request) {
	var req model.SamplingQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.BadRequest("Invalid JSON payload"), "")
		return
	}
	resp, err := h.svc.Queries(req)
	if err != nil {
		writeError(w, classify(err), "")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// pathID extracts the compilation id between the pipelines prefix and suffix.
func pathID(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	path := r.URL.Path
	if !strings.HasPrefix(path, pipelinesPrefix) || !strings.HasSuffix(path, suffix) {
		writeError(w, apperrors.BadRequest("Invalid path"), "")
		return "", false
	}
	id := path[len(pipelinesPrefix) : len(path)-len(suffix)]
	if id == "" || strings.Contains(id, "/") {
		writeError(w, apperrors.BadRequest("Compilation ID is required"), "")
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, e *apperrors.AppError, id string) {
	if e.Code >= http.StatusInternalServerError {
		logger.Error("request failed", "code", e.Code, "error", e)
	}
	writeJSON(w, e.Code, model.ErrorResponse{Code: e.Code, Message: e.Message, ID: id})
}

