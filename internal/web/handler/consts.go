package handler

const (
	// APIPath is the prefix of every json route.
	APIPath = "/api"

	// RouterRootPath is the root path of a route group.
	RouterRootPath = "/"

	// DateQuery is the query parameter selecting a day, "YYYY-MM-DD".
	DateQuery = "date"

	// ErrNilACDMsg is returned if app, cfg or db is nil.
	ErrNilACDMsg = "app, cfg or db is nil"

	// StatusSuccess is the status of a successful ack.
	StatusSuccess = "success"
	// StatusError is the status of a failed request.
	StatusError = "error"
)
