package deps

import (
	"time"

	"github.com/MrSnakeDoc/shelf/internal/debounce"
	"github.com/MrSnakeDoc/shelf/internal/discovery"
	"github.com/MrSnakeDoc/shelf/internal/dispatch"
	"github.com/MrSnakeDoc/shelf/internal/export"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access the API and probes
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	RequestTimeout  time.Duration // per-request timeout applied by the server
	RateLimitBurst  int           // API burst per client IP, 0 disables rate limiting
	RateLimitRefill int           // API tokens refilled per client IP per minute

	Items        *store.Repository       // Item store
	Exports      *export.Engine          // Export pipeline
	Batch        *discovery.Batch        // Batch fetch runner
	Dispatcher   *dispatch.Dispatcher    // Shared fetch dispatcher
	Renames      *debounce.Debouncer     // Debounced rename writes
	Auditor      *scheduler.StoreAuditor // Store integrity checks (nil disables /api/audit)
	AuditTrigger chan struct{}           // Channel to trigger a manual store audit
}
