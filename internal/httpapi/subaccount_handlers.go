package httpapi

import (
	"net/http"
	"strings"

	"harborlist.org/internal/authz"
	"harborlist.org/internal/profile"
)

type updateSubAccountRequest struct {
	Role        *string              `json:"role,omitempty"`
	AccessScope *profile.AccessScope `json:"access_scope,omitempty"`
	Permissions *[]string            `json:"permissions,omitempty"`
	Password    *string              `json:"password,omitempty"`
}

// handleSubAccountScoped routes /v1/sub-accounts/{id}.
func (a *API) handleSubAccountScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sub-accounts/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	// Only the resource id goes into the request; the evaluator resolves the
	// target's parent linkage itself, after credential verification, so
	// unauthenticated probes cannot distinguish existing ids from missing
	// ones and every probe is audited.
	resource := &authz.Resource{
		Type: authz.ResourceSubAccount,
		ID:   id,
	}

	switch r.Method {
	case http.MethodGet:
		r, _, ok := a.authorize(w, r, authz.Request{
			Domain:   authz.DomainCustomer,
			Action:   authz.ActionViewSubAccount,
			Resource: resource,
		})
		if !ok {
			return
		}
		target, err := a.profiles.Get(r.Context(), id)
		if err != nil {
			handleProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, target)

	case http.MethodPut:
		r, _, ok := a.authorize(w, r, authz.Request{
			Domain:   authz.DomainCustomer,
			Action:   authz.ActionUpdateSubAccount,
			Resource: resource,
		})
		if !ok {
			return
		}
		var req updateSubAccountRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.profiles.UpdateSubAccount(r.Context(), id, profile.UpdateSubAccountInput{
			Role:             req.Role,
			AccessScope:      req.AccessScope,
			ExtraPermissions: req.Permissions,
			Password:         req.Password,
		})
		if err != nil {
			handleProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		r, _, ok := a.authorize(w, r, authz.Request{
			Domain:   authz.DomainCustomer,
			Action:   authz.ActionDeleteSubAccount,
			Resource: resource,
		})
		if !ok {
			return
		}
		if err := a.profiles.DeleteSubAccount(r.Context(), id); err != nil {
			handleProfileError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
