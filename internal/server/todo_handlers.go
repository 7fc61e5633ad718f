package server

import (
	"net/http"

	"todoapp/internal/auth"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (api *TodoAPI) listTodos(ctx *gin.Context) {
	principal := principalFrom(ctx)
	tasks, err := sessionFrom(ctx).ListTasks(ctx.Request.Context(), principal.UserID())
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tasks)
}

func (api *TodoAPI) getTodo(ctx *gin.Context) {
	principal := principalFrom(ctx)
	id, err := pathID(ctx)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	task, err := sessionFrom(ctx).GetTask(ctx.Request.Context(), id, principal.UserID())
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	if err := auth.CheckOwnership(principal, task.OwnerID); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, task)
}

func (api *TodoAPI) createTodo(ctx *gin.Context) {
	principal := principalFrom(ctx)
	var req models.TaskRequest
	if err := api.bind(ctx, binding.JSON, &req); err != nil {
		abortWithError(ctx, err)
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Complete:    *req.Complete,
		OwnerID:     principal.UserID(),
	}
	if err := sessionFrom(ctx).CreateTask(ctx.Request.Context(), &task); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, task)
}

func (api *TodoAPI) updateTodo(ctx *gin.Context) {
	principal := principalFrom(ctx)
	id, err := pathID(ctx)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	var req models.TaskRequest
	if err := api.bind(ctx, binding.JSON, &req); err != nil {
		abortWithError(ctx, err)
		return
	}

	repo := sessionFrom(ctx)
	task, err := repo.GetTask(ctx.Request.Context(), id, principal.UserID())
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	if err := auth.CheckOwnership(principal, task.OwnerID); err != nil {
		abortWithError(ctx, err)
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Priority = req.Priority
	task.Complete = *req.Complete
	if err := repo.UpdateTask(ctx.Request.Context(), task); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (api *TodoAPI) deleteTodo(ctx *gin.Context) {
	principal := principalFrom(ctx)
	id, err := pathID(ctx)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	if err := sessionFrom(ctx).DeleteTask(ctx.Request.Context(), id, principal.UserID()); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (api *TodoAPI) listAllTodos(ctx *gin.Context) {
	tasks, err := sessionFrom(ctx).ListAllTasks(ctx.Request.Context())
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tasks)
}

func (api *TodoAPI) deleteAnyTodo(ctx *gin.Context) {
	id, err := pathID(ctx)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	if err := sessionFrom(ctx).DeleteAnyTask(ctx.Request.Context(), id); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
