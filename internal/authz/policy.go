// Package authz evaluates project access policy.
//
// ONE PLACE FOR THE RULES:
// Every project-scoped endpoint (metadata, documentation, attachments)
// applies the same owner-or-expert rule, with exactly one asymmetry:
// experts may READ documentation but only the literal owner may WRITE it
// (experts review, they don't edit developer-authored docs). Spreading
// that check across half a dozen handlers is how the asymmetry gets lost
// during a refactor — so the whole policy lives in this package and the
// handlers just ask.
package authz

import "github.com/sakif/devfolio/internal/model"

// Action is what the caller is trying to do to a project-scoped resource.
type Action string

const (
	// ActionView covers reads of project metadata, documentation, and
	// attachment listings.
	ActionView Action = "view"

	// ActionEdit covers project metadata patches and attachment uploads.
	ActionEdit Action = "edit"

	// ActionEditDocs is documentation writes — the one action experts
	// do NOT get despite having edit rights everywhere else.
	ActionEditDocs Action = "edit_docs"
)

// Decision is the result of a policy evaluation. Reason is a human-readable
// explanation used verbatim in 403 messages when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluate decides whether a caller may perform action on a project owned
// by ownerID. This is the ONLY function that encodes the access rules.
func Evaluate(callerID string, callerRole model.Role, ownerID string, action Action) Decision {
	isOwner := callerID != "" && callerID == ownerID

	switch action {
	case ActionView, ActionEdit:
		if isOwner || callerRole == model.RoleExpert {
			return Decision{Allowed: true}
		}
		return Decision{
			Allowed: false,
			Reason:  "only the project owner or an expert reviewer may access this project",
		}

	case ActionEditDocs:
		// Owner only — deliberately NOT extended to experts.
		if isOwner {
			return Decision{Allowed: true}
		}
		if callerRole == model.RoleExpert {
			return Decision{
				Allowed: false,
				Reason:  "experts may read documentation but only the project owner may edit it",
			}
		}
		return Decision{
			Allowed: false,
			Reason:  "only the project owner may edit documentation",
		}
	}

	// Unknown action: fail closed.
	return Decision{Allowed: false, Reason: "unknown action"}
}
