package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
)

// SyncHandler exposes sync control and visibility to the register UI
type SyncHandler struct {
	notifier interface{ RequestSync() }
	queue    repository.PushQueueRepository
	cursors  repository.SyncCursorRepository
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(
	notifier interface{ RequestSync() },
	queue repository.PushQueueRepository,
	cursors repository.SyncCursorRepository,
) *SyncHandler {
	return &SyncHandler{notifier: notifier, queue: queue, cursors: cursors}
}

// Trigger schedules a sync run. The run happens in the background after the
// debounce window; this endpoint only requests it.
func (h *SyncHandler) Trigger(c *gin.Context) {
	h.notifier.RequestSync()
	response.Success(c, 202, "Sync scheduled", nil)
}

// Status reports the pending push backlog and per-entity pull watermarks
func (h *SyncHandler) Status(c *gin.Context) {
	pending, err := h.queue.Pending(c.Request.Context(), 1000)
	if err != nil {
		response.Error(c, err)
		return
	}

	entities := []string{
		appsync.EntityCategory,
		appsync.EntityProduct,
		appsync.EntityCustomer,
		appsync.EntityDeviceUser,
		appsync.EntitySettings,
		appsync.EntityOrder,
		appsync.EntityShift,
	}
	watermarks := make(map[string]*time.Time, len(entities))
	for _, name := range entities {
		at, err := h.cursors.Get(c.Request.Context(), name)
		if err != nil {
			response.Error(c, err)
			return
		}
		if at.IsZero() {
			watermarks[name] = nil
		} else {
			t := at
			watermarks[name] = &t
		}
	}

	response.OK(c, "Sync status retrieved successfully", gin.H{
		"pending_pushes": len(pending),
		"watermarks":     watermarks,
	})
}
