package catalog

import (
	"log/slog"
	"net/http"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/auth"
	apperrors "github.com/Millionpixels-tech/marketplace-sub001/internal/errors"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/json"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/registry"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/taxonomy"
)

// CatalogHandler serves the lookups the authoring frontend needs before and
// during a session: the caller's shops, their payout accounts and the
// category table.
type CatalogHandler struct {
	shops *registry.Shops
	banks *registry.BankAccounts
}

func NewCatalogHandler(shops *registry.Shops, banks *registry.BankAccounts) *CatalogHandler {
	return &CatalogHandler{
		shops: shops,
		banks: banks,
	}
}

func (h *CatalogHandler) GetShops(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userInfo, err := auth.GetUserInfo(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Unauthorized access attempt", "error", err)
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnauthorized, "Unauthorized access", err))
		return
	}

	shops, err := h.shops.ListOwnedBy(ctx, userInfo.ID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch shops", "user_id", userInfo.ID, "error", err)
		apperrors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, shops)
}

func (h *CatalogHandler) GetBankAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userInfo, err := auth.GetUserInfo(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Unauthorized access attempt", "error", err)
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnauthorized, "Unauthorized access", err))
		return
	}

	accounts, err := h.banks.ForUser(ctx, userInfo.ID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch bank accounts", "user_id", userInfo.ID, "error", err)
		apperrors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, accounts)
}

// GetTaxonomy is public; the category table is the same for everyone.
func (h *CatalogHandler) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, taxonomy.Categories())
}
