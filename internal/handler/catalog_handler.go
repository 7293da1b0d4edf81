package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytracker/internal/catalog"
	"studytracker/internal/service"
)

type CatalogHandler struct {
	studyService *service.StudyService
}

type createSubjectRequest struct {
	Name string `json:"name"`
	Goal int    `json:"goal"`
}

type updateSubjectRequest struct {
	Name *string `json:"name"`
	Goal *int    `json:"goal"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type updateItemRequest struct {
	Name      *string `json:"name"`
	Completed *bool   `json:"completed"`
	ForReview *bool   `json:"forReview"`
}

func NewCatalogHandler(studyService *service.StudyService) *CatalogHandler {
	return &CatalogHandler{studyService: studyService}
}

func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	progress, totalMinutes := h.studyService.Overview()
	c.JSON(http.StatusOK, gin.H{
		"subjects":        h.studyService.Subjects(),
		"overallProgress": progress,
		"totalStudyTime":  totalMinutes,
	})
}

func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req createSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	subject, apiErr := h.studyService.CreateSubject(req.Name, req.Goal)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subject": subject})
}

func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	var req updateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	subject, apiErr := h.studyService.UpdateSubject(c.Param("id"), service.SubjectInput{
		Name: req.Name,
		Goal: req.Goal,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject})
}

func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	if apiErr := h.studyService.DeleteSubject(c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	module, apiErr := h.studyService.CreateModule(c.Param("id"), req.Name)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"module": module})
}

func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	module, apiErr := h.studyService.UpdateModule(c.Param("id"), catalog.ModulePatch{
		Name:      req.Name,
		Completed: req.Completed,
		ForReview: req.ForReview,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"module": module})
}

func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	if apiErr := h.studyService.DeleteModule(c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ReviewModule(c *gin.Context) {
	module, apiErr := h.studyService.MarkReviewed(c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"module": module})
}

func (h *CatalogHandler) CreateSubtopic(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	subtopic, apiErr := h.studyService.CreateSubtopic(c.Param("id"), req.Name)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subtopic": subtopic})
}

func (h *CatalogHandler) UpdateSubtopic(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	subtopic, apiErr := h.studyService.UpdateSubtopic(c.Param("id"), catalog.SubtopicPatch{
		Name:      req.Name,
		Completed: req.Completed,
		ForReview: req.ForReview,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtopic": subtopic})
}

func (h *CatalogHandler) DeleteSubtopic(c *gin.Context) {
	if apiErr := h.studyService.DeleteSubtopic(c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.studyService.History()})
}

func (h *CatalogHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.studyService.Stats()})
}

func (h *CatalogHandler) GetReviews(c *gin.Context) {
	c.JSON(http.StatusOK, h.studyService.Reviews())
}
