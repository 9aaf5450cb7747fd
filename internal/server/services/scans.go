package services

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/dberezins/threatlens/internal/logging"
	"github.com/dberezins/threatlens/internal/server/models"
	"github.com/dberezins/threatlens/internal/server/repositories/repomanager"
)

// Classifier runs a payload through one of the detection models and returns
// the raw integer verdict.
type Classifier interface {
	ClassifyQuery(ctx context.Context, query string) (int, error)
	ClassifyURL(ctx context.Context, url string) (int, error)
	ClassifyFile(ctx context.Context, path string) (int, error)
}

// SampleStore retains uploaded file samples and returns the storage key.
type SampleStore interface {
	Put(ctx context.Context, data []byte) (string, error)
}

// ScanService runs classifications and records them in the per-account
// history.
type ScanService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	classifier  Classifier
	store       SampleStore
	logger      logging.Logger
}

func NewScanService(db *sql.DB, m repomanager.RepositoryManager, classifier Classifier,
	store SampleStore, logger logging.Logger) *ScanService {
	return &ScanService{
		db:          db,
		repomanager: m,
		classifier:  classifier,
		store:       store,
		logger:      logger.With("module", "scan_service"),
	}
}

// verdictText translates the raw classifier output into the stored result.
func verdictText(verdict int) string {
	if verdict == 1 {
		return "Threat"
	}
	return "Clean"
}

// ScanQuery classifies a SQL query and records the outcome.
func (s *ScanService) ScanQuery(ctx context.Context, accountID, query string) (*models.Scan, error) {
	if query == "" {
		return nil, common.ErrMissingFields
	}

	verdict, err := s.classifier.ClassifyQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, &models.Scan{
		AccountID: accountID,
		Type:      models.ScanTypeSQLInjection,
		Input:     query,
		Result:    verdictText(verdict),
	})
}

// ScanURL classifies a URL and records the outcome.
func (s *ScanService) ScanURL(ctx context.Context, accountID, url string) (*models.Scan, error) {
	if url == "" {
		return nil, common.ErrMissingFields
	}

	verdict, err := s.classifier.ClassifyURL(ctx, url)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, &models.Scan{
		AccountID: accountID,
		Type:      models.ScanTypePhishingURL,
		Input:     url,
		Result:    verdictText(verdict),
	})
}

// ScanFile retains the sample in object storage and then classifies it.
// Retention is best-effort: an upload failure is logged and the scan
// proceeds without a storage key.
func (s *ScanService) ScanFile(ctx context.Context, accountID, filename string, data []byte) (*models.Scan, error) {
	if filename == "" || len(data) == 0 {
		return nil, common.ErrMissingFields
	}

	key, err := s.store.Put(ctx, data)
	if err != nil {
		s.logger.Warn(ctx, "sample upload failed", "error", err.Error())
		key = ""
	}

	path, err := s.spool(filename, data)
	if err != nil {
		return nil, s.fault(ctx, "spool sample", err)
	}
	defer os.Remove(path)

	verdict, err := s.classifier.ClassifyFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, &models.Scan{
		AccountID:  accountID,
		Type:       models.ScanTypeFileAnalysis,
		Input:      filename,
		Result:     verdictText(verdict),
		StorageKey: key,
	})
}

// History lists the account's scans, newest first.
func (s *ScanService) History(ctx context.Context, accountID string) ([]*models.Scan, error) {
	list, err := s.repomanager.Scans(s.db).ListByAccount(ctx, accountID)
	if err != nil {
		return nil, s.fault(ctx, "list scans", err)
	}
	return list, nil
}

func (s *ScanService) record(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	created, err := s.repomanager.Scans(s.db).Create(ctx, scan)
	if err != nil {
		return nil, s.fault(ctx, "record scan", err)
	}
	return created, nil
}

// spool writes the sample to a temp file for the classifier script, keeping
// the original extension since some models key off it.
func (s *ScanService) spool(filename string, data []byte) (string, error) {
	f, err := os.CreateTemp("", "sample-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *ScanService) fault(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "unexpected failure", "op", op, "error", err.Error())
	return common.ErrStorageUnavailable
}
