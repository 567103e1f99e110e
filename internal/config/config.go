package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-KeepInTouch/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Keep In Touch"
	AppID             = "com.github.tartampluch.go-keepintouch"
	KeyringService    = "com.github.tartampluch.go-keepintouch"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// DirPermShared is used for database directories.
	DirPermShared fs.FileMode = 0755

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion       = "version"
	FlagDebug         = "debug"
	FlagOnce          = "once"
	FlagStorePassword = "store-password"
	FlagImport        = "import"
	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescOnce      = "Run a single sync, print the next event of every contact and exit"
	FlagDescStorePass = "Read the web source password from stdin and store it in the OS keyring"
	FlagDescImport    = "Import a .vcf file into the configured database and exit"
	MsgVersionOutput  = "%s version %s (%s/%s)\n"
	FormatOnceRow     = "%-32s %-24s %6d  %s\n"
	FormatOnceHeader  = "%-32s %-24s %6s  %s\n"
	OnceColName       = "NAME"
	OnceColKind       = "NEXT"
	OnceColDays       = "DAYS"
	OnceColUrgency    = "URGENCY"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvSourceMode     = "KIT_SOURCE_MODE"
	EnvLocalPath      = "KIT_LOCAL_PATH"
	EnvWebURL         = "KIT_WEB_URL"
	EnvWebUser        = "KIT_WEB_USER"
	EnvWebPass        = "KIT_WEB_PASS"
	EnvDatabaseDSN    = "KIT_DATABASE_DSN"
	EnvBindAddr       = "KIT_BIND_ADDR"
	EnvPort           = "KIT_PORT"
	EnvRefreshMinutes = "KIT_REFRESH_MINUTES"
	EnvReminder       = "KIT_REMINDER_TRIGGER"
	EnvHolidayURL     = "KIT_HOLIDAY_API_URL"
	EnvHolidayName    = "KIT_HOLIDAY_NAME"
	EnvHolidayTimeout = "KIT_HOLIDAY_TIMEOUT_MS"
	EnvWorkers        = "KIT_WORKERS"
	EnvLogFormat      = "KIT_LOG_FORMAT"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb      = "web"
	SourceModeLocal    = "local"
	SourceModeSQLite   = "sqlite"
	SourceModePostgres = "postgres"

	DefaultPort            = "18080"
	DefaultRefreshMin      = 60
	DefaultLanguage        = "en"
	DefaultLeapYear        = 2000 // Leap year fallback for dates like --02-29
	DefaultHolidayName     = "Easter Sunday"
	DefaultHolidayTimeout  = 2 * time.Second
	DefaultLogFormat       = LogFormatJSON
	UIDSalt                = "go-keepintouch-v1-" // Salt for deterministic UID generation
	DisabledInterval       = 0
	LogFormatJSON          = "json"
	LogFormatText          = "text"
	DueSoonWindowDays      = 14
	RelaxedOffsetDays      = 999
	WishesNotSet           = "no wishes set"
	FrequencyLabelNotSet   = "Not Set"
	FrequencyLabelWeekly   = "Weekly"
	FrequencyLabelMonthly  = "Monthly"
	FrequencyLabelQuarter  = "Quarterly"
	FrequencyLabelTwice    = "Twice per Year"
	FrequencyLabelOnce     = "Once per Year"
	FrequencyLabelDoNotKIT = "Do not keep in touch"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Keep In Touch//Engine//EN"
	ICalCalName   = "Keep In Touch"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gokeepintouch"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropCategories  = "CATEGORIES"

	// vCard Fields. The X- properties carry the keep-in-touch attributes.
	VCardUID             = "UID"
	VCardBDAY            = "BDAY"
	VCardFN              = "FN"
	VCardN               = "N"
	VCardKeepInTouch     = "X-KEEP-IN-TOUCH"
	VCardLastInteraction = "X-LAST-INTERACTION"
	VCardChristmas       = "X-CHRISTMAS-WISHES"
	VCardEaster          = "X-EASTER-WISHES"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts used for parsing vCard BDAY fields and API payloads
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%s@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	MaxHolidayBodySize  = 1024 * 1024
	MaxRequestBodySize  = 64 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"
	CORSMaxAge          = 300

	RouteHealth   = "/health"
	RouteCalendar = "/calendar.ics"
	RouteAPI      = "/api/v1"
	RouteContacts = "/contacts"
	RouteContact  = "/contacts/{uid}"
	RouteResolve  = "/resolve"
	RouteInteract = "/contacts/{uid}/interactions"
	ParamUID      = "uid"
	QueryUrgency  = "urgency"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderAccept          = "Accept"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrDSNEmpty         = "configuration error: database DSN is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrSourceMissing    = "internal error: contact source is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrInvalidConfig    = "invalid configuration"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrRefreshRange     = "refresh interval must not be negative"
	ErrWorkersRange     = "worker count must be positive"
	ErrLogFormat        = "log format must be json or text"
	ErrHolidayURL       = "holiday API URL must contain a %d year placeholder"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrHolidayMissing   = "holiday not present in source response"
	ErrHolidayStatus    = "holiday source returned unexpected status"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrLocNotInit       = "localizer not initialized"
	ErrStoreOpen        = "failed to open contact store"
	ErrStoreMigrate     = "failed to run store migrations"
	ErrStoreQuery       = "failed to query contacts"
	ErrStoreScan        = "failed to scan contact row"
	ErrStoreWrite       = "failed to write contact"
	ErrStoreNotFound    = "contact not found"
	ErrStoreDSN         = "database DSN not set"
	ErrStoreDir         = "failed to create database directory"
	ErrStorePing        = "database ping failed"
	ErrImportMode       = "import requires the sqlite or postgres source mode"
	ErrKeyringWrite     = "failed to store password in keyring"
	ErrPasswordRead     = "failed to read password from stdin"
	ErrWebUserEmpty     = "configuration error: web user is empty"
	ErrRequestBody      = "invalid request body"
	ErrUnknownUrgency   = "unknown urgency filter"
	ErrInvalidDate      = "invalid date, expected YYYY-MM-DD"
	ErrInvalidBirthday  = "invalid birthday, expected YYYY-MM-DD or --MM-DD"
	ErrInvalidFrequency = "unknown keep-in-touch frequency"
	ErrYearRequired     = "last interaction requires a full date"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgNotFound     = "Contact not found"
	HTTPCodeBadRequest  = "BAD_REQUEST"
	HTTPCodeNotFound    = "NOT_FOUND"
	HTTPCodeNotReady    = "NOT_READY"
	HTTPCodeInternal    = "INTERNAL_ERROR"
	HTTPCodeUnsupported = "NOT_SUPPORTED"
	HTTPMsgNoRecorder   = "Interactions can only be recorded with a database source"
	HTTPStatusHealthy   = "healthy"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackName = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgSyncSuccess    = "Synchronization completed successfully."
	MsgSyncStarted    = "Synchronization started..."
	MsgSyncFailed     = "Synchronization failed. Check logs."
	MsgSyncReq        = "Sync requested"
	MsgWorkerStart    = "Background worker started"
	MsgWorkerStop     = "Worker stopping due to context cancellation"
	MsgAppStop        = "Application stopped gracefully"
	MsgCtxCancel      = "Context cancelled, shutting down"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date format"
	MsgSkippedFreq    = "Unknown keep-in-touch frequency, treating as not set"
	MsgGenSuccess     = "Feed generation successful"
	MsgAppStarting    = "Starting application"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Feed cache updated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgPassFail       = "Password retrieval failed (might be empty)"
	MsgPassStored     = "Password stored in keyring"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgOverdue        = "Overdue touch base found"
	MsgHolidayFetch   = "Fetching authoritative holiday date"
	MsgHolidayFailed  = "Authoritative holiday lookup failed, using computed date"
	MsgHolidayIgnored = "Authoritative holiday date outside requested year, using computed date"
	MsgHTTPRequest    = "http request"
	MsgStoreOpened    = "Contact store opened"
	MsgStoreMigrated  = "Contact store migrations applied"
	MsgStoreUpsert    = "Contact saved"
	MsgStoreListed    = "Contacts listed"
	MsgInteraction    = "Interaction recorded"
	MsgImported       = "Imported %d contacts into %s\n"
	MsgPasswordPrompt = "Password: "
	MsgSyncSkipped    = "Sync already pending, request coalesced"
	MsgServerFailed   = "HTTP server stopped with an error"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeyTotal     = "total_contacts"
	LogKeyEvents    = "events"
	LogKeyDue       = "due"
	LogKeyOverdue   = "overdue"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyUID       = "uid"
	LogKeyDays      = "days"
	LogKeyYear      = "year"
	LogKeyHoliday   = "holiday"
	LogKeyDate      = "date"
	LogKeyDuration  = "duration_ms"
	LogKeyMethod    = "method"
	LogKeyPath      = "path"
	LogKeyRequestID = "request_id"
	LogKeyRemote    = "remote_addr"
	LogKeyWorkers   = "workers"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompApp     = "app"
	CompEngine  = "engine"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompHoliday = "holiday"
	CompStore   = "store"
	CompWorker  = "worker"
	CompMain    = "main"
	CompI18n    = "i18n"
)

// -----------------------------------------------------------------------------
// Translation Keys (message catalog)
// -----------------------------------------------------------------------------

const (
	TKeyEvtBirthday     = "event_birthday"     // Requires Name
	TKeyEvtBirthdayAge  = "event_birthday_age" // Requires Name, Age
	TKeyEvtEaster       = "event_easter"       // Requires Name, Plan
	TKeyEvtChristmas    = "event_christmas"    // Requires Name, Plan
	TKeyEvtTouchBase    = "event_touch_base"   // Requires Name, Frequency
	TKeyEvtOverdue      = "event_overdue"      // Requires Name, Count (plural)
	TKeyEvtNeedsSetup   = "event_needs_setup"  // Requires Name
	TKeyEvtRelaxed      = "event_relaxed"      // Requires Name
	FallbackEvtDefault  = "%s: %s"
	FallbackEvtAge      = "Birthday: %s (%d)"
	FallbackEvtOverdue  = "Keep in touch with %s (%d days overdue)"
	FallbackEvtBirthday = "Birthday: %s"
)
