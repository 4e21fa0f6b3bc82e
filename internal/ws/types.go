package ws

const (
	// client - server
	MsgPing  = "ping"
	MsgRange = "range"

	// server - client
	MsgLoading   = "loading"
	MsgDashboard = "dashboard"
	MsgTimer     = "timer"
	MsgRedirect  = "redirect"
	MsgError     = "error"
	MsgPong      = "pong"
)
