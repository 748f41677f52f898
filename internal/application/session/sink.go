package session

// Sink receives user-facing progress lines from the workflow. Append
// must be safe to call from the analyze worker; lines are appended in
// order and never dropped.
type Sink interface {
	Append(line string)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(line string)

func (f SinkFunc) Append(line string) { f(line) }

// ChannelSink carries appended lines from the analyze worker to the
// foreground over a buffered channel. Single producer at a time; the
// foreground drains Lines.
type ChannelSink struct {
	ch chan string
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan string, buffer)}
}

func (s *ChannelSink) Append(line string) { s.ch <- line }

// Lines is the receive side of the sink.
func (s *ChannelSink) Lines() <-chan string { return s.ch }

// Close ends the stream once no more appends can happen.
func (s *ChannelSink) Close() { close(s.ch) }
