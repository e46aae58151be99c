package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tasktrack-api/internal/middleware"
	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func principalFromContext(c *gin.Context) (*models.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return p, nil
}

// paging reads page and limit, falling back to page 1 and 20 items. Pages
// beyond models.MaxPage are clamped.
func paging(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > models.MaxPage {
		page = models.MaxPage
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	return page, limit
}

// queryTime parses an RFC3339 timestamp or a plain date. endOfDay extends a
// plain date to the last instant of that day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Validation(err, key+" must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func invalidPayload(err error) error {
	return appErrors.Validation(err, "invalid request payload")
}
