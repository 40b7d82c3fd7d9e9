// Package recording stores simulation results in a SQLite database.
//
// A Recorder holds one database file. Every run written to it gets a
// unique id, and every other table references that id, so one file can
// collect many runs of a sweep.
package recording

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

const defaultBatchSize = 100000

// RunInfo describes a run besides its statistics.
type RunInfo struct {
	Trace     string
	Start     time.Time
	Elapsed   time.Duration
	Truncated bool
}

// Recorder writes runs into a SQLite database.
type Recorder struct {
	*sql.DB

	dbName    string
	batchSize int

	commitStmt *sql.Stmt
	commits    []commitRow
}

// New creates a database at path + ".sqlite3". An empty path picks a
// unique name. It is an error for the file to exist already.
func New(path string) (*Recorder, error) {
	if path == "" {
		path = "cbpsim_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	r := &Recorder{
		DB:        db,
		dbName:    filename,
		batchSize: defaultBatchSize,
	}

	if err := r.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	r.commitStmt, err = r.Prepare(
		`INSERT INTO commits VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("preparing commit statement: %w", err)
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// Filename returns the database file name.
func (r *Recorder) Filename() string {
	return r.dbName
}

// SetBatchSize sets the number of buffered rows that triggers a flush.
func (r *Recorder) SetBatchSize(n int) {
	r.batchSize = max(n, 1)
}

func (r *Recorder) createTables() error {
	stmts := []string{
		`CREATE TABLE runs (
			run_id            VARCHAR(20) PRIMARY KEY,
			trace             TEXT,
			start_time        TEXT,
			elapsed_ns        INTEGER,
			truncated         INTEGER,
			config            TEXT,
			instructions      INTEGER,
			micro_ops         INTEGER,
			cycles            INTEGER,
			ipc               REAL,
			wrong_path_cycles INTEGER,
			loads             INTEGER,
			loads_sq_miss     INTEGER,
			prefetches_issued INTEGER,
			vp_eligible       INTEGER,
			vp_correct        INTEGER,
			vp_incorrect      INTEGER,
			memory_accesses   INTEGER
		)`,
		`CREATE TABLE epochs (
			run_id            VARCHAR(20),
			epoch             INTEGER,
			instructions      INTEGER,
			cycles            INTEGER,
			cond_branches     INTEGER,
			cond_mispredicts  INTEGER,
			wrong_path_cycles INTEGER
		)`,
		`CREATE TABLE branches (
			run_id      VARCHAR(20),
			category    TEXT,
			count       INTEGER,
			mispredicts INTEGER
		)`,
		`CREATE TABLE caches (
			run_id            VARCHAR(20),
			name              TEXT,
			size              INTEGER,
			associativity     INTEGER,
			block_size        INTEGER,
			latency           INTEGER,
			reads             INTEGER,
			writes            INTEGER,
			hits              INTEGER,
			misses            INTEGER,
			evictions         INTEGER,
			writebacks        INTEGER,
			prefetch_accesses INTEGER,
			prefetch_misses   INTEGER
		)`,
		`CREATE TABLE commits (
			run_id       VARCHAR(20),
			seq_no       INTEGER,
			piece        INTEGER,
			pc           INTEGER,
			class        TEXT,
			fetch_cycle  INTEGER,
			decode_cycle INTEGER,
			exec_cycle   INTEGER,
			retire_cycle INTEGER
		)`,
		`CREATE INDEX epochs_run_id_index ON epochs (run_id)`,
		`CREATE INDEX commits_run_id_index ON commits (run_id, seq_no)`,
	}

	for _, s := range stmts {
		if _, err := r.Exec(s); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return xid.New().String()
}

// RecordRun stores the results of a finished run under runID.
func (r *Recorder) RecordRun(
	runID string,
	info RunInfo,
	cfg *config.Config,
	stats pipeline.Statistics,
) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tx, err := r.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO runs VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, info.Trace, info.Start.Format(time.RFC3339), info.Elapsed.Nanoseconds(),
		info.Truncated, string(cfgJSON),
		stats.Instructions, stats.MicroOps, stats.Cycles, stats.IPC(),
		stats.WrongPathCycles, stats.Loads, stats.LoadsSQMiss,
		stats.PrefetchesIssued, stats.VPEligible, stats.VPCorrect,
		stats.VPIncorrect, stats.MemoryAccesses)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, e := range stats.Epochs {
		_, err = tx.Exec(`INSERT INTO epochs VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, e.Instructions, e.Cycles, e.Branch.CondBranches,
			e.Branch.CondMispredicts, e.Branch.WrongPathCycles)
		if err != nil {
			return fmt.Errorf("inserting epoch %d: %w", i, err)
		}
	}

	b := stats.Branch
	categories := []struct {
		name     string
		count    uint64
		mispreds uint64
	}{
		{"CondDirect", b.CondBranches, b.CondMispredicts},
		{"JumpDirect", b.DirectJumps, 0},
		{"JumpIndirect", b.IndirectJumps, b.IndirectMispredicts},
		{"JumpReturn", b.Returns, b.ReturnMispredicts},
		{"NotControl", b.NonControl, b.NonControlAnomalies},
	}
	for _, c := range categories {
		_, err = tx.Exec(`INSERT INTO branches VALUES (?, ?, ?, ?)`,
			runID, c.name, c.count, c.mispreds)
		if err != nil {
			return fmt.Errorf("inserting branch category %s: %w", c.name, err)
		}
	}

	for _, c := range stats.Caches {
		s := c.Stats
		_, err = tx.Exec(`INSERT INTO caches VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.Name, c.Config.Size, c.Config.Associativity,
			c.Config.BlockSize, c.Config.Latency, s.Reads, s.Writes, s.Hits,
			s.Misses, s.Evictions, s.Writebacks, s.PrefetchAccesses,
			s.PrefetchMisses)
		if err != nil {
			return fmt.Errorf("inserting cache %s: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// Flush writes every buffered commit row.
func (r *Recorder) Flush() error {
	if len(r.commits) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt := tx.Stmt(r.commitStmt)
	for _, c := range r.commits {
		_, err := stmt.Exec(c.runID, c.seqNo, c.piece, c.pc, c.class,
			c.fetch, c.decode, c.exec, c.retire)
		if err != nil {
			return fmt.Errorf("inserting commit %d.%d: %w", c.seqNo, c.piece, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.commits = r.commits[:0]
	return nil
}

// Close flushes buffered rows and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		_ = r.DB.Close()
		return err
	}
	return r.DB.Close()
}
