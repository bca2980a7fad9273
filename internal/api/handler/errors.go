package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/service"
	pkgerrors "github.com/Nisha0202/lms-backend/pkg/errors"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// 业务错误码
//
//	10xxx 通用  11xxx 认证  12xxx 用户  13xxx 课程
//	14xxx 报名与学习  15xxx 支付  16xxx 测评
const (
	codeInvalidParams = 10001
	codeBusy          = 10006

	codeInvalidCredentials = 11001
	codeUserBanned         = 11002
	codeEmailTaken         = 11003

	codeUserNotFound   = 12001
	codeCannotBanAdmin = 12002

	codeCourseNotFound = 13001
	codeLessonNotFound = 13002
	codeBatchNotFound  = 13003

	codeAlreadyEnrolled    = 14001
	codeBatchFull          = 14002
	codeNotEnrolled        = 14003
	codeBatchDataMissing   = 14004
	codeNotStartedYet      = 14005
	codeAccessExpired      = 14006
	codeEnrollmentNotFound = 14007

	codePaymentIncomplete = 15001
	codeInvalidMetadata   = 15002
	codeCheckoutNotFound  = 15003
	codeCheckoutOwner     = 15004
	codeGatewayFailure    = 15005

	codeAlreadySubmitted   = 16001
	codeSubmissionNotFound = 16002
	codeQuizNotFound       = 16003
	codeLessonNoAssignment = 16004
)

// handleServiceError 将 Service 层错误映射为统一响应
func handleServiceError(c *gin.Context, err error) {
	// 访问窗口错误需带上边界日期
	var windowErr *service.AccessWindowError
	if errors.As(err, &windowErr) {
		code := codeAccessExpired
		msg := "课程访问已过期"
		if errors.Is(windowErr, service.ErrNotStartedYet) {
			code = codeNotStartedYet
			msg = "课程尚未开始"
		}
		response.ErrorWithDetails(c, http.StatusForbidden, code, msg, windowErr.Boundary.UTC().Format(time.RFC3339))
		return
	}

	switch {
	// ── 认证 / 用户 ──
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, codeInvalidCredentials, "邮箱或密码错误")
	case errors.Is(err, service.ErrUserBanned):
		response.Forbidden(c, codeUserBanned, "账号已被封禁")
	case errors.Is(err, service.ErrEmailTaken):
		response.BadRequest(c, codeEmailTaken, "该邮箱已被注册")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, codeUserNotFound, "用户不存在")
	case errors.Is(err, service.ErrCannotBanAdmin):
		response.BadRequest(c, codeCannotBanAdmin, "不能封禁管理员")

	// ── 课程 ──
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, codeCourseNotFound, "课程不存在")
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, codeLessonNotFound, "课时不存在")
	case errors.Is(err, service.ErrBatchNotFound):
		response.NotFound(c, codeBatchNotFound, "批次不存在")

	// ── 报名 / 学习 ──
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.BadRequest(c, codeAlreadyEnrolled, "您已报名该课程")
	case errors.Is(err, service.ErrBatchFull):
		response.BadRequest(c, codeBatchFull, "该批次名额已满")
	case errors.Is(err, service.ErrNotEnrolled):
		response.Forbidden(c, codeNotEnrolled, "您尚未报名该课程")
	case errors.Is(err, service.ErrBatchDataMissing):
		response.NotFound(c, codeBatchDataMissing, "批次数据缺失")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, codeEnrollmentNotFound, "报名记录不存在")

	// ── 支付 ──
	case errors.Is(err, service.ErrPaymentIncomplete):
		response.BadRequest(c, codePaymentIncomplete, "支付尚未完成")
	case errors.Is(err, service.ErrInvalidMetadata):
		response.BadRequest(c, codeInvalidMetadata, "支付会话元数据无效")
	case errors.Is(err, service.ErrCheckoutNotFound):
		response.NotFound(c, codeCheckoutNotFound, "支付会话不存在")
	case errors.Is(err, service.ErrCheckoutOwnerMismatch):
		response.Forbidden(c, codeCheckoutOwner, "支付会话不属于当前用户")
	case errors.Is(err, service.ErrPaymentGatewayFailure):
		response.Error(c, http.StatusBadGateway, codeGatewayFailure, "支付网关暂不可用，请稍后重试")
	case errors.Is(err, pkgerrors.ErrLockNotAcquired), errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeBusy, "操作正在处理中，请稍后重试")

	// ── 测评 ──
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.BadRequest(c, codeAlreadySubmitted, "该课时作业已提交")
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, codeSubmissionNotFound, "作业提交不存在")
	case errors.Is(err, service.ErrQuizResultNotFound):
		response.NotFound(c, codeQuizNotFound, "测验记录不存在")
	case errors.Is(err, service.ErrLessonNoAssignment):
		response.BadRequest(c, codeLessonNoAssignment, "该课时没有作业")

	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
