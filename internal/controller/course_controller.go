package controller

import (
	"unimind_backend/internal/service"
	"unimind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService   *service.CourseService
	ProgressService *service.ProgressService
}

func NewCourseController(courseService *service.CourseService, progressService *service.ProgressService) *CourseController {
	return &CourseController{
		CourseService:   courseService,
		ProgressService: progressService,
	}
}

// EnrolRequest 选课请求
type EnrolRequest struct {
	CourseCode string `json:"course_code" binding:"required"`
}

// ListCourses godoc
// @Summary 课程列表
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.List(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// ListTopics godoc
// @Summary 课程下的知识点
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param code path string true "课程代码"
// @Success 200 {object} util.Response{data=[]model.Topic}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{code}/topics [get]
func (c *CourseController) ListTopics(ctx *gin.Context) {
	topics, err := c.CourseService.Topics(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// GetOverview godoc
// @Summary 课程复习概况
// @Description 当前用户在该课程的到期题数、今日完成的到期题数和平均掌握度
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param code path string true "课程代码"
// @Success 200 {object} util.Response{data=service.CourseOverview}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{code}/overview [get]
func (c *CourseController) GetOverview(ctx *gin.Context) {
	overview, err := c.ProgressService.CourseOverview(ctx.Request.Context(), tokenUserID(ctx), ctx.Param("code"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// ListEnrolments godoc
// @Summary 学生已选课程
// @Tags 选课
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/students/{userId}/enrolments [get]
func (c *CourseController) ListEnrolments(ctx *gin.Context) {
	courses, err := c.CourseService.Enrolments(ctx.Request.Context(), pathUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// Enrol godoc
// @Summary 选课
// @Tags 选课
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param body body EnrolRequest true "课程代码"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已选该课程"
// @Router /api/students/{userId}/enrolments [post]
func (c *CourseController) Enrol(ctx *gin.Context) {
	var req EnrolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.Enrol(ctx.Request.Context(), pathUserID(ctx), req.CourseCode)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// Unenrol godoc
// @Summary 退课（保留学习进度）
// @Tags 选课
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param code path string true "课程代码"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "未选该课程"
// @Router /api/students/{userId}/enrolments/{code} [delete]
func (c *CourseController) Unenrol(ctx *gin.Context) {
	if err := c.CourseService.Unenrol(ctx.Request.Context(), pathUserID(ctx), ctx.Param("code")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
