package controller

import (
	"strconv"

	"unimind_backend/internal/service"
	"unimind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// StudentController 学生学习数据：作答、掌握度、连续天数、复习题
type StudentController struct {
	AttemptService  *service.AttemptService
	ProgressService *service.ProgressService
}

func NewStudentController(attemptService *service.AttemptService, progressService *service.ProgressService) *StudentController {
	return &StudentController{
		AttemptService:  attemptService,
		ProgressService: progressService,
	}
}

// SubmitAttempt godoc
// @Summary 提交作答
// @Tags 学生
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param body body AnswerRequest true "作答"
// @Success 201 {object} util.Response{data=service.AttemptResult}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/students/{userId}/attempts [post]
func (c *StudentController) SubmitAttempt(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.AttemptService.Submit(ctx.Request.Context(), req.input(pathUserID(ctx)))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// ListAttempts godoc
// @Summary 作答历史
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param limit query int false "条数，默认50"
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Router /api/students/{userId}/attempts [get]
func (c *StudentController) ListAttempts(ctx *gin.Context) {
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultHistoryLimit, util.MaxHistoryLimit)
	attempts, err := c.AttemptService.History(ctx.Request.Context(), pathUserID(ctx), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// GetProgress godoc
// @Summary 各知识点掌握情况
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Success 200 {object} util.Response{data=[]service.TopicProgress}
// @Router /api/students/{userId}/progress [get]
func (c *StudentController) GetProgress(ctx *gin.Context) {
	progress, err := c.ProgressService.Progress(ctx.Request.Context(), pathUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetTopicProgress godoc
// @Summary 单个知识点掌握情况
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param topicId path string true "知识点ID"
// @Success 200 {object} util.Response{data=service.TopicProgress}
// @Failure 404 {object} util.Response "知识点不存在"
// @Router /api/students/{userId}/progress/{topicId} [get]
func (c *StudentController) GetTopicProgress(ctx *gin.Context) {
	p, err := c.ProgressService.TopicProgress(ctx.Request.Context(), pathUserID(ctx), ctx.Param("topicId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// GetPriorityTopics godoc
// @Summary 优先练习的知识点
// @Description 已选课程中未掌握的知识点，按掌握度从低到高排序
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param limit query int false "条数，默认5"
// @Success 200 {object} util.Response{data=[]service.PriorityTopic}
// @Router /api/students/{userId}/priority-topics [get]
func (c *StudentController) GetPriorityTopics(ctx *gin.Context) {
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultPriorityLimit, util.MaxPriorityLimit)
	topics, err := c.ProgressService.PriorityTopics(ctx.Request.Context(), pathUserID(ctx), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// GetStreak godoc
// @Summary 连续学习天数
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Success 200 {object} util.Response{data=service.StreakView}
// @Router /api/students/{userId}/streak [get]
func (c *StudentController) GetStreak(ctx *gin.Context) {
	streak, err := c.ProgressService.Streak(ctx.Request.Context(), pathUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, streak)
}

// GetReviewQuestions godoc
// @Summary 间隔复习题目
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param due query bool false "只返回到期题目"
// @Success 200 {object} util.Response{data=[]service.ReviewQuestion}
// @Router /api/students/{userId}/review-questions [get]
func (c *StudentController) GetReviewQuestions(ctx *gin.Context) {
	dueOnly, _ := strconv.ParseBool(ctx.DefaultQuery("due", "false"))
	questions, err := c.ProgressService.ReviewQuestions(ctx.Request.Context(), pathUserID(ctx), dueOnly)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetTodayStats godoc
// @Summary 今日作答统计
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Success 200 {object} util.Response{data=service.TodayStats}
// @Router /api/students/{userId}/today-stats [get]
func (c *StudentController) GetTodayStats(ctx *gin.Context) {
	stats, err := c.ProgressService.TodayStats(ctx.Request.Context(), pathUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
