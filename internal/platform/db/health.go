package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// poolSnapshot is the connection pool section of the health payload.
type poolSnapshot struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	InUse    int32 `json:"in_use"`
	Max      int32 `json:"max"`
	WaitedMS int64 `json:"waited_ms"`
}

func snapshotPool(pool *pgxpool.Pool) poolSnapshot {
	s := pool.Stat()
	return poolSnapshot{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		InUse:    s.AcquiredConns(),
		Max:      s.MaxConns(),
		WaitedMS: s.AcquireDuration().Milliseconds(),
	}
}

type healthResponse struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Pool   poolSnapshot `json:"pool"`
}

// HealthHandler reports database reachability and pool usage. The ping
// carries a short deadline so a stuck database cannot hang the endpoint.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, healthResponse{
				Status: "unhealthy",
				Error:  err.Error(),
				Pool:   snapshotPool(pool),
			})
		}

		return c.JSON(http.StatusOK, healthResponse{
			Status: "healthy",
			Pool:   snapshotPool(pool),
		})
	}
}
