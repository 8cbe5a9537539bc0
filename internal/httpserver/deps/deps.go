package deps

import (
	"time"

	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/service"
	"github.com/MrSnakeDoc/linemark/internal/version"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Build        version.Info
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access the API
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	RateBurst    int              // per-IP burst, 0 disables rate limiting
	RatePerMin   int              // per-IP refill per minute
	Service      *service.Service // bookmark service behind every /api route
	MaxBodyBytes int64            // request body limit for JSON and imports
}
