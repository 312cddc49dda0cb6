package identity

import "slices"

// Branches are the academic departments a student can belong to.
var Branches = []string{
	"Computer Science",
	"Information Technology",
	"Electronics & Communication",
	"Civil",
	"Mechanical",
	"Electrical",
	"Chemical",
	"Aerospace",
	"Marine",
	"Architecture",
	"Physics",
	"Chemistry",
	"Mathematics",
	"Statistics",
}

// AdministrativeUnits are non-academic offices a faculty member can work in.
var AdministrativeUnits = []string{
	"Exam Cell",
	"Administrative Office",
	"Library",
	"Hostel Office",
	"Placement Cell",
	"Research & Development",
	"International Relations",
	"Student Affairs",
}

// AllDepartments targets a notice or event at everyone.
const AllDepartments = "All Departments"

// Divisions is every unit a faculty member can belong to.
var Divisions = append(slices.Clone(Branches), AdministrativeUnits...)

// Audiences is every department a notice or event can be addressed to.
var Audiences = append(slices.Clone(Divisions), AllDepartments)

func IsBranch(s string) bool   { return slices.Contains(Branches, s) }
func IsDivision(s string) bool { return slices.Contains(Divisions, s) }
func IsAudience(s string) bool { return slices.Contains(Audiences, s) }
