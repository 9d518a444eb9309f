package upload

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/model"
	"github.com/sgkm-college/atkt-backend/utils/response"
	"github.com/sgkm-college/atkt-backend/utils/sse"
)

// pollInterval is how often the stream checks Redis for fresh state.
const pollInterval = 500 * time.Millisecond

// streamTimeout bounds how long a progress stream may stay open.
const streamTimeout = 30 * time.Minute

// StreamProgress streams import progress over SSE. The stream follows the
// Redis-mirrored state, so clients can reconnect mid-import and abandoned
// streams never stall the import itself.
func (h *UploadHandler) StreamProgress(c *fiber.Ctx) error {
	uploadID := c.Params("uploadId")
	if uploadID == "" {
		return response.BadRequest(c, "Upload ID is required")
	}

	if h.tracker == nil {
		return response.ServiceUnavailable(c, "Progress tracking is unavailable")
	}

	// Reject unknown IDs before switching to the event stream; once streaming
	// starts only SSE error events can be sent.
	if _, err := h.tracker.GetState(c.Context(), uploadID); err != nil {
		// Fall back to the durable row for uploads whose Redis state expired
		var batch model.UploadBatch
		if dbErr := h.db.Where("upload_id = ?", uploadID).First(&batch).Error; dbErr != nil {
			return response.NotFound(c, "Upload not found")
		}
		if batch.Completed {
			return response.Success(c, batch)
		}
		return response.NotFound(c, "Upload state expired")
	}

	// Set SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The Fiber context is not valid inside the stream writer
		ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		var lastProcessed = -1
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		poll := time.NewTicker(pollInterval)
		defer poll.Stop()

		for {
			select {
			case <-ctx.Done():
				sse.SendErrorWithDetails(w, "timeout", "Progress stream timed out", nil)
				return
			case <-keepAlive.C:
				if err := sse.SendKeepAlive(w); err != nil {
					return // client went away
				}
			case <-poll.C:
				state, err := h.tracker.GetState(ctx, uploadID)
				if err != nil {
					sse.SendErrorWithDetails(w, "state_lost", "Upload state expired", nil)
					return
				}
				if state.Processed == lastProcessed && !state.Completed {
					continue
				}
				lastProcessed = state.Processed

				if state.Completed {
					sse.SendComplete(w, state)
					return
				}
				if err := sse.SendProgress(w, state); err != nil {
					return // client went away
				}
			}
		}
	})

	return nil
}
