package app

// Sink names reported to a Recorder.
const (
	SinkConsole = "console"
	SinkFile    = "file"
)

// Recorder observes the engine's pack flow.
// Implementations must be safe for concurrent use; methods are called from
// producers and workers.
type Recorder interface {
	PackPublished(commands int)
	BatchDequeued(sink string, packs int)
	PackWritten(sink string)
	SinkFailed(sink string)
}

type noopRecorder struct{}

func (noopRecorder) PackPublished(int)         {}
func (noopRecorder) BatchDequeued(string, int) {}
func (noopRecorder) PackWritten(string)        {}
func (noopRecorder) SinkFailed(string)         {}
