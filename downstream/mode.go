package downstream

import "chat-relay/config"

// Mode is how a single chat request is answered.
type Mode int

const (
	ModeMock Mode = iota
	ModeJSON
	ModeStream
)

func (m Mode) String() string {
	switch m {
	case ModeMock:
		return "mock"
	case ModeJSON:
		return "json"
	case ModeStream:
		return "stream"
	default:
		return "unknown"
	}
}

// SelectMode picks the mode for req. Mock always wins.
func SelectMode(cfg *config.Config, req *ChatRequest) Mode {
	switch {
	case cfg.UseMock:
		return ModeMock
	case cfg.Stream || req.Stream:
		return ModeStream
	default:
		return ModeJSON
	}
}
