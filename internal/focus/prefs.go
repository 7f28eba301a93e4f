package focus

// Local preference slots of the focus widget. They live in the same namespace
// as the shared keys but are only read by this widget.
const (
	KeyTab           = "ff_tab"
	KeyWork          = "ff_work"
	KeyBreak         = "ff_break"
	KeyMode          = "ff_mode"
	KeySecs          = "ff_secs"
	KeyBlockName     = "ff_block_name"
	KeyTasks         = "ff_tasks"
	KeyHideCompleted = "ff_hide_completed"
)

type Tab string

const (
	TabTimer Tab = "timer"
	TabTasks Tab = "tasks"
)

// LocalTask is the widget's own copy of a task. Completion is tracked here only.
type LocalTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Estimate int    `json:"estimate"`
	Done     bool   `json:"done"`
}
