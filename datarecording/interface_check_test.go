package datarecording

import "github.com/sarchlab/yardsim/eventlog"

var _ DataRecorder = (*ClickHouseRecorder)(nil)
var _ DataRecorder = (*sqliteWriter)(nil)
var _ eventlog.Sink = (*EventRecorder)(nil)
