package rbac

type OrgRole string
type ProjectRole string
type Action string

const (
	OrgSuperAdmin OrgRole = "superadmin"
	OrgAdmin      OrgRole = "admin"
	OrgHR         OrgRole = "hr"
	OrgEmployee   OrgRole = "employee"
	OrgClient     OrgRole = "client"
)

const (
	ProjectManager        ProjectRole = "manager"
	ProjectDeveloper      ProjectRole = "developer"
	ProjectDesigner       ProjectRole = "designer"
	ProjectTester         ProjectRole = "tester"
	ProjectViewer         ProjectRole = "viewer"
	ProjectExternalViewer ProjectRole = "external_viewer"
)

const (
	ActionRead          Action = "read"
	ActionWrite         Action = "write"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
	ActionManageBoards  Action = "manage_boards"
	ActionUpdateTasks   Action = "update_tasks"
)

// Can is the total (project role, action) table. Roles and actions are
// closed enums; an unknown role denies everything.
func Can(role ProjectRole, action Action) bool {
	switch role {
	case ProjectManager:
		return action == ActionRead || action == ActionWrite || action == ActionDelete ||
			action == ActionManageMembers || action == ActionManageBoards
	case ProjectDeveloper, ProjectDesigner, ProjectTester:
		return action == ActionRead || action == ActionWrite || action == ActionUpdateTasks
	case ProjectViewer, ProjectExternalViewer:
		return action == ActionRead
	default:
		return false
	}
}

// HRCan is the org-wide HR allow-list: HR may read and manage membership on
// any project without holding a membership entry.
func HRCan(action Action) bool {
	return action == ActionRead || action == ActionManageMembers
}

// CanCreateProjects reports whether an org role may create projects at all.
// Clients only ever see projects they were added to.
func CanCreateProjects(role OrgRole) bool {
	switch role {
	case OrgSuperAdmin, OrgAdmin, OrgHR, OrgEmployee:
		return true
	default:
		return false
	}
}

func NormalizeOrg(role string) OrgRole {
	switch OrgRole(role) {
	case OrgSuperAdmin, OrgAdmin, OrgHR, OrgEmployee, OrgClient:
		return OrgRole(role)
	default:
		return OrgClient
	}
}

func NormalizeProject(role string) ProjectRole {
	switch ProjectRole(role) {
	case ProjectManager, ProjectDeveloper, ProjectDesigner, ProjectTester, ProjectViewer, ProjectExternalViewer:
		return ProjectRole(role)
	default:
		return ProjectViewer
	}
}

// ValidProjectRole reports whether the raw string is a member of the closed
// project-role set, without normalizing unknowns away.
func ValidProjectRole(role string) bool {
	switch ProjectRole(role) {
	case ProjectManager, ProjectDeveloper, ProjectDesigner, ProjectTester, ProjectViewer, ProjectExternalViewer:
		return true
	default:
		return false
	}
}

// Rank orders project roles by privilege. Higher is more privileged; the
// three contributor variants share a rank.
func Rank(role ProjectRole) int {
	switch role {
	case ProjectManager:
		return 3
	case ProjectDeveloper, ProjectDesigner, ProjectTester:
		return 2
	case ProjectViewer:
		return 1
	case ProjectExternalViewer:
		return 0
	default:
		return -1
	}
}
