package constants

// Centralized constants for headers, env keys and route paths.
const (
	// Environment variable keys
	EnvServerAddress = "SERVER_ADDRESS"
	EnvDatabasePath  = "DATABASE_PATH"
	EnvConfigPath    = "ARENA_CONFIG"
	EnvGinMode       = "GIN_MODE"

	// HTTP headers and content types
	HeaderPlayerID   = "X-Player-ID"
	HeaderPlayerName = "X-Player-Name"

	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteHealth        = "/healthz"
	RouteArena         = "/arena"
	RouteRaids         = "/raids"
	RouteRaidJoin      = "/raids/:sessionID/join"
	RouteRaidAttack    = "/raids/:sessionID/attack"
	RouteGates         = "/gates"
	RouteBattleByID    = "/battles/:sessionID"
	RouteBattleChoice  = "/battles/:sessionID/choice"
	RouteLeaderboard   = "/leaderboard"
	RouteRankingByID   = "/ranking/:playerID"
	RoutePlayerProfile = "/profile"
	RoutePlayerSkills  = "/skills"
	RouteVersion       = "/version"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyStatus  = "status"
	JSONKeyMessage = "message"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest    = "Invalid request"
	ErrPlayerIDRequired  = "X-Player-ID header is required"
	ErrSessionNotFound   = "Battle session not found"
	ErrFailedStartBattle = "Failed to start battle"
	ErrFailedFetchStats  = "Failed to fetch stats"
	ErrFailedFetchBoard  = "Failed to fetch leaderboard"
	ErrProfileNotFound   = "Player profile not found"
)

// Logging field names
const (
	LogFieldSessionID = "session_id"
	LogFieldPlayerID  = "player_id"
	LogFieldAddr      = "addr"
	LogFieldMode      = "mode"
)
