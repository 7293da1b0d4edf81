package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "studytracker/internal/errors"
	"studytracker/internal/model"
	"studytracker/internal/service"
	"studytracker/internal/timer"
)

type TimerHandler struct {
	studyService *service.StudyService
}

type durationRequest struct {
	Phase   model.Phase `json:"phase"`
	Minutes int         `json:"minutes"`
}

type selectionRequest struct {
	SubjectID  string `json:"subjectId"`
	TopicID    string `json:"topicId"`
	SubtopicID string `json:"subtopicId"`
}

type soundRequest struct {
	Enabled *bool `json:"enabled"`
}

func NewTimerHandler(studyService *service.StudyService) *TimerHandler {
	return &TimerHandler{studyService: studyService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.studyService.Timer())
}

func (h *TimerHandler) Start(c *gin.Context) {
	h.respond(c, h.studyService.Start)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.respond(c, h.studyService.Pause)
}

func (h *TimerHandler) Resume(c *gin.Context) {
	h.respond(c, h.studyService.Resume)
}

func (h *TimerHandler) Stop(c *gin.Context) {
	h.respond(c, h.studyService.Stop)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.respond(c, h.studyService.Reset)
}

func (h *TimerHandler) UpdateDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	view, apiErr := h.studyService.ChangeDuration(req.Phase, req.Minutes)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TimerHandler) UpdateSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	view, apiErr := h.studyService.ChangeSelection(model.Selection{
		SubjectID:  req.SubjectID,
		ModuleID:   req.TopicID,
		SubtopicID: req.SubtopicID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TimerHandler) UpdateSound(c *gin.Context) {
	var req soundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		writeInvalidJSON(c)
		return
	}

	prefs := h.studyService.SetSoundEnabled(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"soundEnabled": prefs.SoundEnabled})
}

// Events streams timer events as server-sent events until the client goes
// away. The current state is sent first.
func (h *TimerHandler) Events(c *gin.Context) {
	events := h.studyService.Subscribe(32)
	defer h.studyService.Unsubscribe(events)

	c.Header("Cache-Control", "no-cache")
	c.SSEvent(string(timer.EventStateChange), h.studyService.Timer())

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		}
	})
}

func (h *TimerHandler) respond(c *gin.Context, transition func() (*service.TimerView, *apperrors.APIError)) {
	view, apiErr := transition()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}
