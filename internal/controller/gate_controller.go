package controller

import (
	"unimind_backend/internal/service"
	"unimind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GateController struct {
	GateService *service.GateService
}

func NewGateController(gateService *service.GateService) *GateController {
	return &GateController{GateService: gateService}
}

// AnswerRequest 作答请求，answer_index 从 0 开始
type AnswerRequest struct {
	QuestionID  string `json:"question_id" binding:"required"`
	AnswerIndex *int   `json:"answer_index" binding:"required"`
	Seconds     int    `json:"seconds" binding:"min=0"`
}

func (r AnswerRequest) input(userID uint) service.SubmitAttemptInput {
	return service.SubmitAttemptInput{
		UserID:       userID,
		QuestionID:   r.QuestionID,
		AnswerIndex:  *r.AnswerIndex,
		SecondsTaken: r.Seconds,
	}
}

// GetQuestion godoc
// @Summary 获取门控题目
// @Description 从最薄弱的知识点中选题，target 可限定课程
// @Tags 门控
// @Produce  json
// @Security ApiKeyAuth
// @Param target query string false "课程代码"
// @Success 200 {object} util.Response{data=service.GateQuestion}
// @Failure 404 {object} util.Response "暂无可用题目"
// @Router /api/gate/question [get]
func (c *GateController) GetQuestion(ctx *gin.Context) {
	q, err := c.GateService.Select(ctx.Request.Context(), tokenUserID(ctx), ctx.Query("target"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// SubmitAnswer godoc
// @Summary 提交门控作答
// @Description 答对返回放行时长 allow_ms，答错为 0
// @Tags 门控
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body AnswerRequest true "作答"
// @Success 200 {object} util.Response{data=service.GateAnswer}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/gate/answer [post]
func (c *GateController) SubmitAnswer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.GateService.Answer(ctx.Request.Context(), req.input(tokenUserID(ctx)))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
