package router

import (
	"context"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/llm"
	"cv-agent-go/internal/processor"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, cvHandler *handler.CVHandler) {
	api := h.Group("/api/v1")

	// 候选人视角：分析自己的简历
	api.POST("/candidate/analyze", func(c context.Context, ctx *app.RequestContext) {
		data, filename, ok := readUploadedFile(ctx, "file")
		if !ok {
			return
		}

		targetRole := ctx.PostForm("target_role")
		includeChunks := ctx.PostForm("include_chunks") == "true"
		withReport := ctx.PostForm("with_report") == "true"

		resp, err := cvHandler.HandleCandidateAnalyze(c, data, filename, targetRole, includeChunks, withReport)
		if err != nil {
			ctx.JSON(handler.StatusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 候选人视角：生成指定类型的分析报告
	api.POST("/candidate/report", func(c context.Context, ctx *app.RequestContext) {
		data, filename, ok := readUploadedFile(ctx, "file")
		if !ok {
			return
		}

		kind := llm.ReportKind(ctx.PostForm("kind"))
		if kind == "" {
			kind = llm.ReportFeedback
		}
		targetRole := ctx.PostForm("target_role")
		jobDescription := ctx.PostForm("job_description")

		resp, err := cvHandler.HandleCandidateReport(c, data, filename, kind, targetRole, jobDescription)
		if err != nil {
			ctx.JSON(handler.StatusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 招聘方视角：单份简历与岗位描述匹配
	api.POST("/recruiter/match", func(c context.Context, ctx *app.RequestContext) {
		data, filename, ok := readUploadedFile(ctx, "file")
		if !ok {
			return
		}

		jobDescription := ctx.PostForm("job_description")

		resp, err := cvHandler.HandleRecruiterMatch(c, data, filename, jobDescription)
		if err != nil {
			ctx.JSON(handler.StatusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 招聘方视角：多份简历批量排序
	api.POST("/recruiter/rank", func(c context.Context, ctx *app.RequestContext) {
		form, err := ctx.MultipartForm()
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "解析multipart表单失败"})
			return
		}

		files := form.File["files"]
		if len(files) == 0 {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		jobDescription := ctx.PostForm("job_description")

		var docs []processor.CandidateDocument
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败: " + fileHeader.Filename})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败: " + fileHeader.Filename})
				return
			}
			docs = append(docs, processor.CandidateDocument{
				FileName: fileHeader.Filename,
				Data:     data,
			})
		}

		resp, err := cvHandler.HandleRecruiterRank(c, docs, jobDescription)
		if err != nil {
			// 部分失败明细随错误响应一并返回
			body := utils.H{"error": err.Error()}
			if resp != nil && len(resp.Failures) > 0 {
				body["failures"] = resp.Failures
			}
			ctx.JSON(handler.StatusForError(err), body)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// readUploadedFile 读取multipart表单中的单个上传文件，失败时直接写入错误响应
func readUploadedFile(ctx *app.RequestContext, field string) ([]byte, string, bool) {
	fileHeader, err := ctx.FormFile(field)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return nil, "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return nil, "", false
	}

	return data, fileHeader.Filename, true
}
