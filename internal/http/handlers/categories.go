package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/category"
	"github.com/gin-gonic/gin"
)

type CategoryStore interface {
	CreateCategory(ctx context.Context, name string) (category.Category, error)
	ListCategories(ctx context.Context) ([]category.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (category.Category, error)
}

type CategoriesHandler struct {
	repo    CategoryStore
	timeout time.Duration
	log     *slog.Logger
}

func NewCategoriesHandler(repo CategoryStore, timeout time.Duration, log *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{repo: repo, timeout: timeout, log: log}
}

func (h *CategoriesHandler) CreateCategory(ctx *gin.Context) {
	var req category.CreateCategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{fieldError("name", "required", "")}})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	c, err := h.repo.CreateCategory(cctx, name)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not create category")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CategoriesHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	items, err := h.repo.ListCategories(cctx)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not list categories")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *CategoriesHandler) GetCategoryByID(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	c, err := h.repo.GetCategoryByID(cctx, id)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not fetch category")
		return
	}

	ctx.JSON(http.StatusOK, c)
}
