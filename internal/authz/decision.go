package authz

import "net/http"

// Effect is the overall outcome of an evaluation.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Context keys denormalized into a decision for downstream handlers.
const (
	CtxTrustDomain      = "trustDomain"
	CtxCustomerType     = "customerType"
	CtxTier             = "tier"
	CtxRole             = "role"
	CtxErrorCode        = "errorCode"
	CtxRequiredTier     = "requiredTier"
	CtxUpgradeRequired  = "upgradeRequired"
	CtxPermissionSource = "permissionSource"
)

// Decision is the output of one authorization evaluation. It is constructed
// fresh per request and never cached: resource identifiers vary per call and
// a decision is only as current as the state it read.
type Decision struct {
	Effect      Effect            `json:"effect"`
	PrincipalID string            `json:"principal_id"`
	Context     map[string]string `json:"context,omitempty"`
	ErrorCode   Code              `json:"error_code,omitempty"`
	UserMessage string            `json:"user_message,omitempty"`
	Resource    string            `json:"resource,omitempty"`
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// HTTPStatus is the status downstream HTTP handlers should return.
func (d Decision) HTTPStatus() int {
	if d.Allowed() {
		return http.StatusOK
	}
	return d.ErrorCode.HTTPStatus()
}

func (d *Decision) setContext(key, value string) {
	if value == "" {
		return
	}
	if d.Context == nil {
		d.Context = make(map[string]string, 4)
	}
	d.Context[key] = value
}

func allowDecision(principalID, resource string) Decision {
	return Decision{
		Effect:      EffectAllow,
		PrincipalID: principalID,
		Resource:    resource,
	}
}

func denyDecision(principalID, resource string, code Code) Decision {
	d := Decision{
		Effect:      EffectDeny,
		PrincipalID: principalID,
		ErrorCode:   code,
		UserMessage: code.UserMessage(),
		Resource:    resource,
	}
	d.setContext(CtxErrorCode, string(code))
	return d
}
