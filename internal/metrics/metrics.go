package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Hub Metrics
var (
	// HubActiveRooms tracks number of rooms with at least one session on this instance
	HubActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_rooms",
			Help: "Number of rooms with at least one connected session on this instance",
		},
	)

	// HubConnectedSessions tracks total connected websocket sessions
	HubConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_sessions_total",
			Help: "Total number of connected websocket sessions across all rooms",
		},
	)

	// HubMessagesDelivered tracks messages fanned out to sessions
	HubMessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_messages_delivered_total",
			Help: "Total update messages enqueued to sessions during fanout",
		},
	)

	// HubSlowClientsEvicted tracks sessions dropped for full send buffers
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total sessions disconnected because their send buffer was full",
		},
	)

	// HubCommandChannelDepth tracks the hub actor's command backlog
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current depth of the hub command channel",
		},
	)

	// HubStopTimeoutsTotal tracks forced shutdowns
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Total times hub shutdown exceeded its timeout",
		},
	)

	// HubPanicsTotal tracks recovered panics in the hub actor
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Total panics recovered in the hub goroutine",
		},
	)
)

// Bus Metrics
var (
	// BusMessagesPublished tracks publishes by status
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total messages published to the fanout bus by status",
		},
		[]string{"status"},
	)

	// BusMessagesReceived tracks messages received from the bus subscription
	BusMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_messages_received_total",
			Help: "Total messages received from the fanout bus subscription",
		},
	)

	// BusSubscriptionDrops tracks messages discarded by the subscription path
	BusSubscriptionDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_subscription_drops_total",
			Help: "Total bus messages dropped before local fanout (malformed or backlogged)",
		},
	)
)

// WebSocket Metrics
var (
	// WebSocketConnectionsAccepted tracks accepted sessions by room kind
	WebSocketConnectionsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_accepted_total",
			Help: "Total websocket connections accepted by room kind (company/dev_admin)",
		},
		[]string{"room_kind"},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total websocket connections rejected by reason",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks time to write one frame
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "Time to write one websocket frame to a session",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks failed protocol-level pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total protocol-level ping writes that failed",
		},
	)

	// WebSocketKeepAlivePings tracks application-level ping frames received
	WebSocketKeepAlivePings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_keepalive_pings_total",
			Help: "Total application-level ping frames received from clients",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query latency by query kind
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database query errors by query kind
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database query errors by query kind",
		},
		[]string{"query"},
	)
)

// Directory Metrics
var (
	// DirectoryLookups tracks company lookups by result
	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_lookups_total",
			Help: "Total user directory lookups by result (hit/not_found/error)",
		},
		[]string{"result"},
	)

	// DirectoryLookupDuration tracks lookup latency
	DirectoryLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "directory_lookup_duration_seconds",
			Help:    "User directory lookup duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Announce Metrics
var (
	// AnnouncementsTotal tracks announce calls by entity and action
	AnnouncementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "announcements_total",
			Help: "Total entity-change announcements by entity and action",
		},
		[]string{"entity", "action"},
	)

	// AnnouncementFailures tracks announces that failed to publish
	AnnouncementFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "announcement_failures_total",
			Help: "Total announcements that failed to reach the bus",
		},
	)
)
