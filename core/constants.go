package core

// Response bodies for the TCP command surface.
const (
	ReplyPong     = "PONG!"
	ReplyOK       = "ok"
	ReplyNotFound = "not found"
	ReplyNoData   = "no data"
	ReplyInvalid  = "Invalid Command"
)
