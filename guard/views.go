package guard

import (
	"slices"

	"github.com/jrsteele09/go-lawfirm-console/users"
)

// View identifies a dashboard page.
type View string

const (
	ViewDashboard        View = "dashboard"
	ViewCases            View = "cases"
	ViewConsultations    View = "consultations"
	ViewAppointments     View = "appointments"
	ViewTasks            View = "tasks"
	ViewDocuments        View = "documents"
	ViewLeave            View = "leave"
	ViewPayroll          View = "payroll"
	ViewTraining         View = "training"
	ViewCompanyFormation View = "company-formation"
	ViewArchive          View = "archive"
	ViewMessages         View = "messages"
	ViewNotifications    View = "notifications"
	ViewTranslations     View = "translations"
	ViewUsers            View = "users"
	ViewProfile          View = "profile"
)

func (v View) String() string {
	return string(v)
}

// Requirements maps each protected view to the roles allowed to open it.
// A view present with an empty list is open to any authenticated identity.
type Requirements map[View][]users.RoleType

// DefaultRequirements is the dashboard's access table.
func DefaultRequirements() Requirements {
	var (
		sa      = users.RoleSuperAdmin
		admin   = users.RoleAdmin
		lawyer  = users.RoleLawyer
		trainee = users.RoleTrainee
		client  = users.RoleClient
	)
	return Requirements{
		ViewDashboard:        nil,
		ViewCases:            {sa, admin, lawyer, trainee},
		ViewConsultations:    {sa, admin, lawyer, client},
		ViewAppointments:     nil,
		ViewTasks:            {sa, admin, lawyer, trainee},
		ViewDocuments:        nil,
		ViewLeave:            {sa, admin, lawyer, trainee},
		ViewPayroll:          {sa, admin},
		ViewTraining:         {sa, admin, trainee},
		ViewCompanyFormation: {sa, admin, lawyer, client},
		ViewArchive:          {sa, admin, lawyer},
		ViewMessages:         nil,
		ViewNotifications:    nil,
		ViewTranslations:     {sa, admin},
		ViewUsers:            {sa, admin},
		ViewProfile:          nil,
	}
}

// Roles returns the roles allowed on view and whether view is known.
func (r Requirements) Roles(view View) ([]users.RoleType, bool) {
	roles, ok := r[view]
	return slices.Clone(roles), ok
}

// Views returns the known views in a stable order.
func (r Requirements) Views() []View {
	views := make([]View, 0, len(r))
	for v := range r {
		views = append(views, v)
	}
	slices.Sort(views)
	return views
}
