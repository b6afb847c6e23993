package authoring

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/auth"
	core "github.com/Millionpixels-tech/marketplace-sub001/internal/authoring"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
	apperrors "github.com/Millionpixels-tech/marketplace-sub001/internal/errors"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/json"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/registry"
)

// maxUploadBytes bounds one multipart image batch in memory.
const maxUploadBytes = 32 << 20

// SessionHandler exposes the authoring sessions over HTTP. Every route
// resolves the session by ID and caller identity; a session belonging to
// someone else is a plain 404.
type SessionHandler struct {
	manager *core.Manager
	shops   *registry.Shops
}

func NewSessionHandler(manager *core.Manager, shops *registry.Shops) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		shops:   shops,
	}
}

// session resolves the caller and their session from the request, writing
// the error response itself on failure.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*core.Session, auth.UserInfo, bool) {
	ctx := r.Context()
	userInfo, err := auth.GetUserInfo(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Unauthorized access attempt", "error", err)
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnauthorized, "Unauthorized access", err))
		return nil, auth.UserInfo{}, false
	}

	sess, err := h.manager.Get(chi.URLParam(r, "id"), userInfo.ID)
	if err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrNotFound, "Authoring session not found", err))
		return nil, auth.UserInfo{}, false
	}
	return sess, userInfo, true
}

func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userInfo, err := auth.GetUserInfo(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Unauthorized access attempt", "error", err)
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnauthorized, "Unauthorized access", err))
		return
	}

	req := StartSessionRequest{}
	if r.ContentLength > 0 {
		if err := json.Read(r, &req); err != nil {
			apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
			return
		}
	}

	sess := h.manager.Start(userInfo.ID)

	if req.ShopID != "" {
		shop, err := h.shops.Get(ctx, userInfo.ID, req.ShopID)
		if err != nil {
			apperrors.RespondError(w, r, apperrors.New(apperrors.ErrNotFound, "Shop not found", err))
			return
		}
		if err := sess.SelectShop(shop.ID, shop.Name); err != nil {
			apperrors.RespondError(w, r, err)
			return
		}
	}

	json.Write(w, http.StatusCreated, sess.State())
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	json.Write(w, http.StatusOK, sess.State())
}

func (h *SessionHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userInfo, err := auth.GetUserInfo(ctx)
	if err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnauthorized, "Unauthorized access", err))
		return
	}

	if err := h.manager.Remove(chi.URLParam(r, "id"), userInfo.ID); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrNotFound, "Authoring session not found", err))
		return
	}
	json.Write(w, http.StatusNoContent, nil)
}

// --- Navigation ---

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	moved := sess.Advance()
	json.Write(w, http.StatusOK, NavigateResponse{Moved: moved, Snapshot: sess.State()})
}

func (h *SessionHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	moved := sess.Retreat()
	json.Write(w, http.StatusOK, NavigateResponse{Moved: moved, Snapshot: sess.State()})
}

func (h *SessionHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	req := NavigateRequest{}
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
		return
	}

	moved := sess.GoTo(req.Step)
	json.Write(w, http.StatusOK, NavigateResponse{Moved: moved, Snapshot: sess.State()})
}

// --- Draft mutations ---

func (h *SessionHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, userInfo, ok := h.session(w, r)
	if !ok {
		return
	}

	req := DraftUpdateRequest{}
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
		return
	}

	if req.Shop != nil {
		shop, err := h.shops.Get(ctx, userInfo.ID, req.Shop.ShopID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				apperrors.RespondError(w, r, apperrors.New(apperrors.ErrNotFound, "Shop not found", err))
				return
			}
			apperrors.RespondError(w, r, err)
			return
		}
		if err := sess.SelectShop(shop.ID, shop.Name); err != nil {
			respondDomainError(w, r, err)
			return
		}
	}

	if req.Category != nil {
		if err := sess.SetCategory(req.Category.Category, req.Category.Subcategory); err != nil {
			respondDomainError(w, r, err)
			return
		}
	}

	if req.Details != nil {
		err := sess.UpdateDetails(core.DetailsUpdate{
			Title:         req.Details.Title,
			Description:   req.Details.Description,
			HandlingNotes: req.Details.HandlingNotes,
			BasePrice:     req.Details.BasePrice,
			BaseQuantity:  req.Details.BaseQuantity,
		})
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
	}

	if req.HasVariations != nil {
		sess.SetHasVariations(*req.HasVariations)
	}

	json.Write(w, http.StatusOK, sess.State())
}

// --- Variations ---

func (h *SessionHandler) BeginAddVariation(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	v, err := sess.BeginAddVariation()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, v)
}

func (h *SessionHandler) BeginEditVariation(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	req := BeginEditRequest{}
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
		return
	}

	v, err := sess.BeginEditVariation(req.VariationID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, v)
}

func (h *SessionHandler) CommitVariation(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	req := CommitVariationRequest{}
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
		return
	}

	err := sess.CommitVariation(core.Variation{
		Label:         req.Label,
		PriceDelta:    req.PriceDelta,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, sess.State())
}

func (h *SessionHandler) CancelVariation(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.CancelVariation()
	json.Write(w, http.StatusOK, sess.State())
}

func (h *SessionHandler) RemoveVariation(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.RemoveVariation(chi.URLParam(r, "variationID")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, sess.State())
}

// --- Images ---

func (h *SessionHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Could not parse the uploaded files.", err))
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "No images were provided.", nil))
		return
	}

	files := make([]core.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Could not read uploaded file "+fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Could not read uploaded file "+fh.Filename, err))
			return
		}
		files = append(files, core.ImageFile{Name: fh.Filename, Data: data})
	}

	added, skipped := sess.AddImages(files)
	slog.DebugContext(ctx, "Images accepted", "session_id", sess.ID, "added", len(added), "skipped", skipped)

	summaries := make([]core.SlotSummary, 0, len(added))
	for _, slot := range added {
		summaries = append(summaries, core.SlotSummary{
			ID:       slot.ID,
			Filename: slot.Asset.Filename,
			State:    slot.State(),
		})
	}
	json.Write(w, http.StatusAccepted, AddImagesResponse{Added: summaries, Skipped: skipped})
}

func (h *SessionHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.RemoveImage(chi.URLParam(r, "slotID")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, sess.State())
}

// PreviewImage serves the processed bytes so the frontend can show the
// photo before its upload finishes.
func (h *SessionHandler) PreviewImage(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	data, contentType, err := sess.ImagePreview(chi.URLParam(r, "slotID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// --- Delivery & payment ---

func (h *SessionHandler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	req := DeliveryRequest{}
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
		return
	}

	err := sess.SetDelivery(core.DeliveryPolicy{
		Type:                 req.Type,
		PerItemCharge:        req.PerItemCharge,
		AdditionalItemCharge: req.AdditionalItemCharge,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, sess.State())
}

func (h *SessionHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	req := PaymentRequest{}
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Input provided was not in the format expected.", err))
		return
	}

	if err := sess.SetPaymentMethods(ctx, req.Methods); err != nil {
		respondDomainError(w, r, err)
		return
	}
	json.Write(w, http.StatusOK, sess.State())
}

// --- Submission ---

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, userInfo, ok := h.session(w, r)
	if !ok {
		return
	}

	listing, err := sess.Submit(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	// The finished session has served its purpose.
	if err := h.manager.Remove(sess.ID, userInfo.ID); err != nil {
		slog.WarnContext(ctx, "Failed to remove submitted session", "session_id", sess.ID, "error", err)
	}

	json.Write(w, http.StatusCreated, listing)
}

// respondDomainError translates the authoring package's sentinels into
// AppError responses. Anything unrecognized is treated as internal.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNoPaymentMethodSelected):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Select at least one payment method before publishing.", err))
	case errors.Is(err, core.ErrAssetUploadIncomplete):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Some photos have not finished uploading. Remove failed photos and try again.", err))
	case errors.Is(err, core.ErrBankAccountRequired):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Add a bank account before enabling bank transfer.", err))
	case errors.Is(err, core.ErrSubmitInProgress):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrConflict, "This listing is already being published.", err))
	case errors.Is(err, core.ErrSlotNotFound),
		errors.Is(err, core.ErrVariationNotFound):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrNotFound, "The requested item no longer exists.", err))
	case errors.Is(err, core.ErrEditInProgress),
		errors.Is(err, core.ErrNoEditInProgress):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrConflict, "Finish or cancel the open variation edit first.", err))
	case errors.Is(err, core.ErrShopRequired),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidDelivery),
		errors.Is(err, core.ErrInvalidPaymentMethod),
		errors.Is(err, core.ErrLabelRequired),
		errors.Is(err, core.ErrNegativeDelta),
		errors.Is(err, core.ErrNegativeStock),
		errors.Is(err, core.ErrNegativePrice),
		errors.Is(err, core.ErrNegativeQuantity):
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, err.Error(), err))
	default:
		apperrors.RespondError(w, r, err)
	}
}
