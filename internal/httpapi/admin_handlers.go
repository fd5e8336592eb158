package httpapi

import (
	"net/http"
	"strings"

	"harborlist.org/internal/authz"
)

// StaffActionViewProfiles is the staff-pool permission required to inspect
// customer profiles through the admin surface.
const StaffActionViewProfiles = authz.Action("profiles.view")

// handleAdminProfile serves the staff-only profile inspection endpoint. The
// evaluator asserts the staff pool, so a customer token presented here denies
// with a cross-pool error regardless of its validity.
func (a *API) handleAdminProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/admin/profiles/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	r, _, ok := a.authorize(w, r, authz.Request{
		Domain: authz.DomainStaff,
		Action: StaffActionViewProfiles,
		Resource: &authz.Resource{
			Type: authz.ResourceProfile,
			ID:   id,
		},
	})
	if !ok {
		return
	}

	record, err := a.profiles.Get(r.Context(), id)
	if err != nil {
		handleProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
