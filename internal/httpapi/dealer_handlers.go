package httpapi

import (
	"net/http"
	"strings"

	"harborlist.org/internal/authz"
	"harborlist.org/internal/profile"
)

var dealerTiers = []profile.Tier{profile.TierDealer, profile.TierPremiumDealer}

type createSubAccountRequest struct {
	Email       string               `json:"email"`
	Password    string               `json:"password"`
	Role        string               `json:"role"`
	AccessScope *profile.AccessScope `json:"access_scope,omitempty"`
	Permissions []string             `json:"permissions,omitempty"`
}

// handleDealerScoped routes /v1/dealers/{dealerID}/... paths.
func (a *API) handleDealerScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/dealers/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	dealerID := parts[0]

	switch parts[1] {
	case "sub-accounts":
		switch r.Method {
		case http.MethodGet:
			a.listSubAccounts(w, r, dealerID)
		case http.MethodPost:
			a.createSubAccount(w, r, dealerID)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case "analytics":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.dealerAnalytics(w, r, dealerID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listSubAccounts(w http.ResponseWriter, r *http.Request, dealerID string) {
	r, _, ok := a.authorize(w, r, authz.Request{
		Domain:        authz.DomainCustomer,
		Action:        authz.ActionViewSubAccount,
		RequiredTiers: dealerTiers,
		Resource: &authz.Resource{
			Type:           authz.ResourceSubAccount,
			OwnerID:        dealerID,
			ParentDealerID: dealerID,
		},
	})
	if !ok {
		return
	}
	accounts, err := a.profiles.ListSubAccounts(r.Context(), dealerID)
	if err != nil {
		handleProfileError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*profile.CustomerProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sub_accounts": accounts})
}

func (a *API) createSubAccount(w http.ResponseWriter, r *http.Request, dealerID string) {
	r, _, ok := a.authorize(w, r, authz.Request{
		Domain:        authz.DomainCustomer,
		Action:        authz.ActionCreateSubAccount,
		RequiredTiers: dealerTiers,
		Resource: &authz.Resource{
			Type:           authz.ResourceSubAccount,
			OwnerID:        dealerID,
			ParentDealerID: dealerID,
		},
	})
	if !ok {
		return
	}
	var req createSubAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.profiles.CreateSubAccount(r.Context(), dealerID, profile.CreateSubAccountInput{
		Email:            req.Email,
		Password:         req.Password,
		Role:             req.Role,
		AccessScope:      req.AccessScope,
		ExtraPermissions: req.Permissions,
	})
	if err != nil {
		handleProfileError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sub-accounts/"+created.UserID)
	writeJSON(w, http.StatusCreated, created)
}

// dealerAnalytics is a dealer-gated feature endpoint: the tier requirement is
// enforced by the evaluator against the authoritative profile record, not the
// token's tier hint.
func (a *API) dealerAnalytics(w http.ResponseWriter, r *http.Request, dealerID string) {
	r, decision, ok := a.authorize(w, r, authz.Request{
		Domain:        authz.DomainCustomer,
		Action:        authz.ActionViewAnalytics,
		RequiredTiers: dealerTiers,
		Resource: &authz.Resource{
			Type:    authz.ResourceAnalytics,
			ID:      dealerID,
			OwnerID: dealerID,
		},
	})
	if !ok {
		return
	}
	accounts, err := a.profiles.ListSubAccounts(r.Context(), dealerID)
	if err != nil {
		handleProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dealer_id":         dealerID,
		"tier":              decision.Context[authz.CtxTier],
		"sub_account_count": len(accounts),
	})
}
