package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/rs/xid"
)

// ExecInfoTable is the table that describes the program execution.
const ExecInfoTable = "exec_info"

const timeLayout = "2006-01-02 15:04:05.000000000"

// ExecInfo is one property of the program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// Records program execution
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) (*execRecorder, error) {
	e := &execRecorder{recorder: recorder}

	if err := recorder.CreateTable(ExecInfoTable, ExecInfo{}); err != nil {
		return nil, err
	}

	return e, nil
}

// Start logs the current execution.
func (e *execRecorder) Start() {
	e.Set("Run ID", xid.New().String())
	e.Set("Start Time", time.Now().Format(timeLayout))
	e.Set("Command", strings.Join(os.Args, " "))

	if cwd, err := os.Getwd(); err == nil {
		e.Set("Working Directory", cwd)
	}
}

// Set adds a property of the run.
func (e *execRecorder) Set(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

// End writes the properties along with the program exit time.
func (e *execRecorder) End() error {
	e.Set("End Time", time.Now().Format(timeLayout))

	for _, entry := range e.entries {
		if err := e.recorder.InsertData(ExecInfoTable, entry); err != nil {
			return err
		}
	}

	e.entries = nil

	return e.recorder.Flush()
}
