package decoder

type Result int

const (
	// ResultNone means nothing to report; decoding continues.
	ResultNone = Result(iota)
	ResultNeedInput
	ResultPicture

	// ResultFlushed means all the in-flight state of the codec library is invalid.
	ResultFlushed

	// ResultError is fatal for the stream.
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultNeedInput:
		return "need_input"
	case ResultPicture:
		return "picture"
	case ResultFlushed:
		return "flushed"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

type State int

const (
	StateClosed = State(iota)
	StateOpen
	StateReset
	StateLost
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateReset:
		return "RESET"
	case StateLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}
