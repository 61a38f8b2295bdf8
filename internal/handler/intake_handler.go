package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesintake/internal/disclosure"
	"salesintake/internal/domain"
	"salesintake/internal/intake"
	"salesintake/internal/port"
	"salesintake/internal/upload"
)

// UploadInput is the optional body of an upload request.
type UploadInput struct {
	Note string `json:"note"`
}

// UploadOutput is returned after a completed upload.
type UploadOutput struct {
	Result        *domain.UploadResult  `json:"result"`
	RecentUploads []domain.RecentUpload `json:"recent_uploads"`
}

// IntakeHandler handles staging, inspecting and uploading files.
type IntakeHandler struct {
	pipeline     *intake.Pipeline
	workspace    *upload.Workspace
	orchestrator *upload.Orchestrator
	registry     port.UploadRegistry
	policy       *disclosure.Policy
	logger       *zap.Logger
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(
	pipeline *intake.Pipeline,
	workspace *upload.Workspace,
	orchestrator *upload.Orchestrator,
	registry port.UploadRegistry,
	policy *disclosure.Policy,
	logger *zap.Logger,
) *IntakeHandler {
	return &IntakeHandler{
		pipeline:     pipeline,
		workspace:    workspace,
		orchestrator: orchestrator,
		registry:     registry,
		policy:       policy,
		logger:       logger,
	}
}

// Parse handles POST /api/v1/intake (multipart field "file"). The parsed item
// replaces the caller's active item; problems are reported on the item.
func (h *IntakeHandler) Parse(c *gin.Context) {
	p, _, ok := extractSession(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	in := intake.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	// Oversized files are rejected by the pipeline without being read.
	if header.Size <= h.pipeline.MaxFileSizeBytes() {
		in.Content, err = io.ReadAll(file)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
			return
		}
	}

	item := h.pipeline.ParseAndValidate(c.Request.Context(), in)
	h.workspace.Stage(p.ID, item)
	h.logger.Info("handler.Parse: file staged",
		zap.String("principal", p.ID),
		zap.String("file", item.Name),
		zap.String("status", string(item.Status)),
	)

	RespondOK(c, disclosure.View(item, h.policy.Compute(p), h.orchestrator.Enabled()))
}

// Current handles GET /api/v1/intake/current
func (h *IntakeHandler) Current(c *gin.Context) {
	p, _, ok := extractSession(c)
	if !ok {
		return
	}
	item, found := h.workspace.Current(p.ID)
	if !found {
		HandleError(c, domain.ErrNoActiveItem)
		return
	}
	RespondOK(c, disclosure.View(&item, h.policy.Compute(p), h.orchestrator.Enabled()))
}

// Discard handles DELETE /api/v1/intake/current
func (h *IntakeHandler) Discard(c *gin.Context) {
	p, _, ok := extractSession(c)
	if !ok {
		return
	}
	h.workspace.Discard(p.ID)
	RespondOK(c, gin.H{"message": "intake cleared"})
}

// Upload handles POST /api/v1/intake/current/upload. The request stays open
// until the transfer and registration finish; GET /intake/current reports
// progress meanwhile.
func (h *IntakeHandler) Upload(c *gin.Context) {
	p, cred, ok := extractSession(c)
	if !ok {
		return
	}

	var input UploadInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	item, err := h.workspace.BeginUpload(p.ID)
	if err != nil {
		HandleError(c, err)
		return
	}

	op := h.orchestrator.Start(c.Request.Context(), upload.Request{
		Principal:  p,
		Credential: cred,
		Item:       item,
		Note:       input.Note,
	})
	result, err := h.workspace.Track(p.ID, item.ID, op)
	if err != nil {
		HandleOperationError(c, err)
		return
	}

	recent, err := h.registry.RecentUploads(c.Request.Context(), cred)
	if err != nil {
		h.logger.Warn("handler.Upload: refreshing recent uploads failed", zap.Error(err))
		recent = []domain.RecentUpload{}
	}
	RespondOK(c, UploadOutput{Result: result, RecentUploads: recent})
}

// ZeroSales handles POST /api/v1/intake/zero-sales
func (h *IntakeHandler) ZeroSales(c *gin.Context) {
	p, cred, ok := extractSession(c)
	if !ok {
		return
	}
	result, err := h.orchestrator.ZeroSales(c.Request.Context(), p, cred)
	if err != nil {
		HandleOperationError(c, err)
		return
	}
	RespondCreated(c, result)
}
