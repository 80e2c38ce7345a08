package datarecording

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions locates a ClickHouse server.
type ClickHouseOptions struct {
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// ClickHouseRecorder is a DataRecorder that sends the recording to a
// ClickHouse server. It knows the yard event and execution tables only and
// uses type-specific batches instead of reflection.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables     map[string]clickHouseTable
	tableOrder []string
	entryCount int

	events   []EventEntry
	execInfo []ExecInfo
}

type clickHouseTable int

const (
	clickHouseEventTable clickHouseTable = iota
	clickHouseExecInfoTable
)

// NewClickHouseRecorder connects to a ClickHouse server.
func NewClickHouseRecorder(opts ClickHouseOptions) (*ClickHouseRecorder, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = 100000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      time.Second * 30,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: opts.BatchSize,
		tables:    make(map[string]clickHouseTable),
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// CreateTable creates a MergeTree table for event or execution entries.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		createSQL string
		tType     clickHouseTable
	)

	switch sampleEntry.(type) {
	case EventEntry:
		tType = clickHouseEventTable
		createSQL = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				Seq Int64,
				Time Int64,
				Kind String,
				Container Int64,
				Position Int64,
				Amount Int64,
				Name String,
				Width Int64
			) ENGINE = MergeTree()
			ORDER BY Seq
		`, tableName)
	case ExecInfo:
		tType = clickHouseExecInfoTable
		createSQL = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				Property String,
				Value String
			) ENGINE = MergeTree()
			ORDER BY Property
		`, tableName)
	default:
		return fmt.Errorf("ClickHouse cannot store entries of type %T", sampleEntry)
	}

	if err := r.conn.Exec(context.Background(), createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	if _, exists := r.tables[tableName]; !exists {
		r.tableOrder = append(r.tableOrder, tableName)
	}

	r.tables[tableName] = tType

	return nil
}

// InsertData buffers an entry.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) error {
	r.mu.Lock()

	if _, ok := r.tables[tableName]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("table %s does not exist", tableName)
	}

	switch e := entry.(type) {
	case EventEntry:
		r.events = append(r.events, e)
	case ExecInfo:
		r.execInfo = append(r.execInfo, e)
	default:
		r.mu.Unlock()
		return fmt.Errorf("ClickHouse cannot store entries of type %T", entry)
	}

	r.entryCount++
	full := r.entryCount >= r.batchSize
	r.mu.Unlock()

	if full {
		return r.Flush()
	}

	return nil
}

// ListTables returns the tables created so far.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.tableOrder...)
}

// Flush writes all batched data to ClickHouse using bulk inserts.
func (r *ClickHouseRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return nil
	}

	ctx := context.Background()

	for _, tableName := range r.tableOrder {
		var err error

		switch r.tables[tableName] {
		case clickHouseEventTable:
			err = r.flushEvents(ctx, tableName)
		case clickHouseExecInfoTable:
			err = r.flushExecInfo(ctx, tableName)
		}

		if err != nil {
			return err
		}
	}

	r.entryCount = 0

	return nil
}

func (r *ClickHouseRecorder) flushEvents(ctx context.Context, tableName string) error {
	if len(r.events) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", tableName, err)
	}

	for _, e := range r.events {
		err = batch.Append(int64(e.Seq), int64(e.Time), e.Kind,
			int64(e.Container), int64(e.Position), int64(e.Amount),
			e.Name, int64(e.Width))
		if err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	r.events = r.events[:0]

	return nil
}

func (r *ClickHouseRecorder) flushExecInfo(ctx context.Context, tableName string) error {
	if len(r.execInfo) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", tableName, err)
	}

	for _, e := range r.execInfo {
		if err := batch.Append(e.Property, e.Value); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	r.execInfo = r.execInfo[:0]

	return nil
}

// Close flushes remaining data and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
