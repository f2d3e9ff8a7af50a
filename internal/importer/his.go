package importer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/clinicware/staffing/internal/shared/config"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"
)

// HISPoller reads patient transfers from the hospital information system's
// SQL Server database and mirrors them into stay intervals. The HIS is the
// source of truth for admissions, transfers, and discharges; this process
// only ever reads from it.
type HISPoller struct {
	db     *sql.DB
	cfg    config.HISConfig
	stays  *stay.Repository
	logger *zap.Logger

	running  bool
	mu       sync.Mutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// NewHISPoller creates a poller for the configured HIS database
func NewHISPoller(cfg config.HISConfig, stays *stay.Repository, logger *zap.Logger) *HISPoller {
	return &HISPoller{cfg: cfg, stays: stays, logger: logger}
}

// Start opens the database connection and begins polling
func (p *HISPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller already running")
	}

	db, err := sql.Open("sqlserver", p.cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open HIS database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping HIS database: %w", err)
	}

	p.db = db
	p.running = true
	p.lastPoll = time.Now().Add(-time.Duration(p.cfg.PollSeconds) * time.Second)

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.pollLoop(pollCtx)

	return nil
}

// Stop stops polling and closes the connection
func (p *HISPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if p.db != nil {
		p.db.Close()
	}

	p.running = false
	return nil
}

func (p *HISPoller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Duration(p.cfg.PollSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				p.logger.Error("HIS poll failed", zap.Error(err))
			}
		}
	}
}

// transferRow mirrors one row of the HIS transfer table
type transferRow struct {
	PatientNumber string
	FirstName     string
	LastName      string
	StationName   string
	StartAt       time.Time
	EndAt         time.Time
	IsExternal    bool
}

func (p *HISPoller) poll(ctx context.Context) error {
	since := p.lastPoll
	p.lastPoll = time.Now()

	query := fmt.Sprintf(`
		SELECT t.PatientNumber, pat.FirstName, pat.LastName,
			t.StationName, t.StartAt, t.EndAt, t.IsExternal
		FROM %s t
		JOIN %s pat ON pat.PatientNumber = t.PatientNumber
		WHERE t.LastModified > @since
		ORDER BY t.StartAt`,
		p.cfg.TransferTable, p.cfg.PatientTable)

	rows, err := p.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	imported := 0
	for rows.Next() {
		var row transferRow
		if err := rows.Scan(
			&row.PatientNumber, &row.FirstName, &row.LastName,
			&row.StationName, &row.StartAt, &row.EndAt, &row.IsExternal,
		); err != nil {
			return fmt.Errorf("failed to scan transfer: %w", err)
		}

		if err := p.applyTransfer(ctx, row); err != nil {
			metrics.RecordImportRow("his", "error")
			p.logger.Warn("failed to apply HIS transfer",
				zap.String("patient_number", row.PatientNumber),
				zap.String("station", row.StationName),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordImportRow("his", "ok")
		imported++
	}

	if imported > 0 {
		p.logger.Info("applied HIS transfers", zap.Int("count", imported))
	}

	return rows.Err()
}

func (p *HISPoller) applyTransfer(ctx context.Context, row transferRow) error {
	station, err := p.stays.GetStationByName(ctx, row.StationName)
	if errors.Is(err, errors.ErrNotFound) {
		// The HIS is authoritative for the ward layout; register stations
		// it mentions that the roster does not know yet.
		station = &stay.Station{ID: types.NewID(), Name: row.StationName}
		err = p.stays.UpsertStation(ctx, station)
	}
	if err != nil {
		return err
	}

	patient := &stay.Patient{
		ID:         types.NewID(),
		ExternalID: row.PatientNumber,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
	}
	if err := p.stays.UpsertPatient(ctx, patient); err != nil {
		return err
	}

	interval := &stay.Interval{
		ID:               types.NewDeterministicID("stay-interval", row.PatientNumber+"/"+row.StartAt.UTC().Format(time.RFC3339)),
		PatientID:        patient.ID,
		StationID:        station.ID,
		StartAt:          row.StartAt,
		EndAt:            row.EndAt,
		ExternalTransfer: row.IsExternal,
	}

	return p.stays.SaveInterval(ctx, interval)
}
