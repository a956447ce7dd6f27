package core

// Viewer is the capability tag a page renders against. Composition
// dispatches on it instead of comparing role strings in templates.
type Viewer struct {
	Role Role
	Name string
}

func NewViewer(id Identity) Viewer {
	return Viewer{Role: id.Role, Name: id.Name}
}

func (v Viewer) IsAdmin() bool { return v.Role == RoleAdmin }

// CanManageCompanies and friends gate both navigation and mutation
// endpoints; the route guard enforces the same set server-side.
func (v Viewer) CanManageCompanies() bool { return v.Role == RoleAdmin }
func (v Viewer) CanManageEmployees() bool { return v.Role == RoleAdmin }
func (v Viewer) CanIssueReceipts() bool   { return v.Role == RoleAdmin }

// CanSeeUnified: unified aggregate receipts are admin-only regardless of
// any filter the viewer selects.
func (v Viewer) CanSeeUnified() bool { return v.Role == RoleAdmin }

// ReceiptSubject returns the employee name the viewer is restricted to,
// or "" when the viewer may see every subject.
func (v Viewer) ReceiptSubject() string {
	if v.Role == RoleAdmin {
		return ""
	}
	return v.Name
}
