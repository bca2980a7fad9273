package model

// Role 用户角色
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Capability 可授权的操作能力
type Capability string

const (
	CapEnroll          Capability = "enroll"           // 报名、支付、查看自己的课程
	CapLearn           Capability = "learn"            // 访问课程内容、标记完成
	CapSubmitWork      Capability = "submit_work"      // 提交作业、查看成绩
	CapManageCourses   Capability = "manage_courses"   // 课程/课时/批次管理
	CapManageUsers     Capability = "manage_users"     // 用户列表、封禁
	CapViewEnrollments Capability = "view_enrollments" // 报名列表、统计、导出
	CapGrade           Capability = "grade"            // 作业与测验评分
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleStudent: {
		CapEnroll:     {},
		CapLearn:      {},
		CapSubmitWork: {},
	},
	RoleAdmin: {
		CapManageCourses:   {},
		CapManageUsers:     {},
		CapViewEnrollments: {},
		CapGrade:           {},
	},
}

// ParseRole 解析角色字符串，未知角色返回 false
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleCapabilities[r]
	return r, ok
}

// Can 判断角色是否具备某项能力，所有授权判断都经过这里
func (r Role) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }
