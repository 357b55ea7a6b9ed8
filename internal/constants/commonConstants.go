package constants

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixVoyageState CachePrefix = "VOYAGE_STATE_"
	CachePrefixVesselState CachePrefix = "VESSEL_STATE_"
)

// Redis keys and stream names
const (
	VoyageEventStream   = "voyage:events"
	VoyageEventGroup    = "voyage-state-workers"
	VoyageLockKeyPrefix = "voyage:lock:"
)

// Voyage event types published on VoyageEventStream
const (
	EventReportSubmitted = "report_submitted"
	EventReportReviewed  = "report_reviewed"
	EventCascadeApplied  = "cascade_applied"
)
