package enum

import "fmt"

// Role is a production staff role. Workflow steps name the role allowed to
// work them; users carry exactly one.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleBaker          Role = "baker"
	RoleDecorator      Role = "decorator"
	RoleQualityControl Role = "quality_control"
	RolePacker         Role = "packer"
	RoleDriver         Role = "driver"
)

// Department narrows a role to a floor area.
type Department string

const (
	DepartmentManagement     Department = "management"
	DepartmentProduction     Department = "production"
	DepartmentKitchen        Department = "kitchen"
	DepartmentDecorating     Department = "decorating"
	DepartmentQualityControl Department = "quality_control"
	DepartmentPackaging      Department = "packaging"
	DepartmentLogistics      Department = "logistics"
)

var roles = map[Role]bool{
	RoleAdmin: true, RoleManager: true, RoleBaker: true, RoleDecorator: true,
	RoleQualityControl: true, RolePacker: true, RoleDriver: true,
}

var departments = map[Department]bool{
	DepartmentManagement: true, DepartmentProduction: true, DepartmentKitchen: true,
	DepartmentDecorating: true, DepartmentQualityControl: true,
	DepartmentPackaging: true, DepartmentLogistics: true,
}

// ParseRole validates s against the role registry.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !roles[r] {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// ParseDepartment validates s against the department registry. Empty means
// "any department" and is returned as "" with no error.
func ParseDepartment(s string) (Department, error) {
	if s == "" {
		return "", nil
	}
	d := Department(s)
	if !departments[d] {
		return "", fmt.Errorf("unknown department %q", s)
	}
	return d, nil
}

// Capability is the {role, department} tag a workflow step requires.
// An empty Department matches users of any department.
type Capability struct {
	Role       Role
	Department Department
}

// ParseCapability resolves raw step template values into a typed capability.
func ParseCapability(role, department string) (Capability, error) {
	r, err := ParseRole(role)
	if err != nil {
		return Capability{}, err
	}
	d, err := ParseDepartment(department)
	if err != nil {
		return Capability{}, err
	}
	return Capability{Role: r, Department: d}, nil
}

// Allows reports whether a user with the given role and department holds
// this capability.
func (c Capability) Allows(role Role, department Department) bool {
	if c.Role != role {
		return false
	}
	return c.Department == "" || c.Department == department
}

func (c Capability) String() string {
	if c.Department == "" {
		return string(c.Role)
	}
	return string(c.Role) + "@" + string(c.Department)
}
