package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/dberezins/threatlens/internal/server/classify"
	"github.com/dberezins/threatlens/internal/server/models"
)

type fakeScansRepo struct {
	createdIn *models.Scan
	createErr error

	listOut []*models.Scan
	listErr error
}

func (f *fakeScansRepo) Create(ctx context.Context, s *models.Scan) (*models.Scan, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdIn = s
	out := *s
	out.ID = 1
	return &out, nil
}
func (f *fakeScansRepo) ListByAccount(ctx context.Context, accountID string) ([]*models.Scan, error) {
	return f.listOut, f.listErr
}

type fakeClassifier struct {
	verdict int
	err     error

	filePath string
}

func (f *fakeClassifier) ClassifyQuery(ctx context.Context, q string) (int, error) {
	return f.verdict, f.err
}
func (f *fakeClassifier) ClassifyURL(ctx context.Context, u string) (int, error) {
	return f.verdict, f.err
}
func (f *fakeClassifier) ClassifyFile(ctx context.Context, path string) (int, error) {
	f.filePath = path
	return f.verdict, f.err
}

type fakeSampleStore struct {
	putIn  []byte
	putKey string
	putErr error
}

func (f *fakeSampleStore) Put(ctx context.Context, data []byte) (string, error) {
	f.putIn = data
	return f.putKey, f.putErr
}

func newScanService(t *testing.T, rm *fakeRepoManager, c Classifier, st SampleStore) *ScanService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	return NewScanService(db, rm, c, st, nopLogger())
}

func TestScanQuery_Threat(t *testing.T) {
	repo := &fakeScansRepo{}
	s := newScanService(t, &fakeRepoManager{s: repo}, &fakeClassifier{verdict: 1}, &fakeSampleStore{})

	scan, err := s.ScanQuery(context.Background(), "u1", "' OR 1=1 --")
	if err != nil {
		t.Fatalf("ScanQuery error: %v", err)
	}
	if scan.Result != "Threat" || scan.Type != models.ScanTypeSQLInjection {
		t.Fatalf("unexpected scan: %+v", scan)
	}
	if repo.createdIn.Input != "' OR 1=1 --" {
		t.Fatalf("input not recorded: %+v", repo.createdIn)
	}
}

func TestScanQuery_Clean(t *testing.T) {
	repo := &fakeScansRepo{}
	s := newScanService(t, &fakeRepoManager{s: repo}, &fakeClassifier{verdict: 0}, &fakeSampleStore{})

	scan, err := s.ScanQuery(context.Background(), "u1", "SELECT 1")
	if err != nil {
		t.Fatalf("ScanQuery error: %v", err)
	}
	if scan.Result != "Clean" {
		t.Fatalf("want Clean, got %q", scan.Result)
	}
}

func TestScanQuery_Empty(t *testing.T) {
	s := newScanService(t, &fakeRepoManager{s: &fakeScansRepo{}}, &fakeClassifier{}, &fakeSampleStore{})

	if _, err := s.ScanQuery(context.Background(), "u1", ""); !errors.Is(err, common.ErrMissingFields) {
		t.Fatalf("want ErrMissingFields, got %v", err)
	}
}

func TestScanQuery_AnalysisFailure(t *testing.T) {
	s := newScanService(t, &fakeRepoManager{s: &fakeScansRepo{}},
		&fakeClassifier{err: classify.ErrAnalysisFailed}, &fakeSampleStore{})

	_, err := s.ScanQuery(context.Background(), "u1", "SELECT 1")
	if !errors.Is(err, classify.ErrAnalysisFailed) {
		t.Fatalf("want ErrAnalysisFailed, got %v", err)
	}
}

func TestScanURL_Threat(t *testing.T) {
	repo := &fakeScansRepo{}
	s := newScanService(t, &fakeRepoManager{s: repo}, &fakeClassifier{verdict: 1}, &fakeSampleStore{})

	scan, err := s.ScanURL(context.Background(), "u1", "http://phish.example")
	if err != nil {
		t.Fatalf("ScanURL error: %v", err)
	}
	if scan.Type != models.ScanTypePhishingURL || scan.Result != "Threat" {
		t.Fatalf("unexpected scan: %+v", scan)
	}
}

func TestScanFile_RetainsSample(t *testing.T) {
	repo := &fakeScansRepo{}
	classifier := &fakeClassifier{verdict: 1}
	store := &fakeSampleStore{putKey: "users/1/2/3/abc"}
	s := newScanService(t, &fakeRepoManager{s: repo}, classifier, store)

	data := []byte("MZ...")
	scan, err := s.ScanFile(context.Background(), "u1", "payload.exe", data)
	if err != nil {
		t.Fatalf("ScanFile error: %v", err)
	}
	if scan.StorageKey != "users/1/2/3/abc" {
		t.Fatalf("storage key not recorded: %+v", scan)
	}
	if scan.Input != "payload.exe" {
		t.Fatalf("filename not recorded: %+v", scan)
	}
	if string(store.putIn) != "MZ..." {
		t.Fatal("sample bytes not uploaded")
	}
	if classifier.filePath == "" {
		t.Fatal("classifier never saw a spooled file")
	}
	if _, err := os.Stat(classifier.filePath); !os.IsNotExist(err) {
		t.Fatalf("spooled file %q was not cleaned up", classifier.filePath)
	}
}

func TestScanFile_UploadFailureIsBestEffort(t *testing.T) {
	repo := &fakeScansRepo{}
	store := &fakeSampleStore{putErr: errBoom{}}
	s := newScanService(t, &fakeRepoManager{s: repo}, &fakeClassifier{verdict: 0}, store)

	scan, err := s.ScanFile(context.Background(), "u1", "doc.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("upload failure must not fail the scan, got %v", err)
	}
	if scan.StorageKey != "" {
		t.Fatalf("want empty storage key, got %q", scan.StorageKey)
	}
}

func TestScanFile_Empty(t *testing.T) {
	s := newScanService(t, &fakeRepoManager{s: &fakeScansRepo{}}, &fakeClassifier{}, &fakeSampleStore{})

	if _, err := s.ScanFile(context.Background(), "u1", "x.bin", nil); !errors.Is(err, common.ErrMissingFields) {
		t.Fatalf("want ErrMissingFields, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	repo := &fakeScansRepo{listOut: []*models.Scan{{ID: 2}, {ID: 1}}}
	s := newScanService(t, &fakeRepoManager{s: repo}, &fakeClassifier{}, &fakeSampleStore{})

	list, err := s.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 2 {
		t.Fatalf("unexpected history: %+v", list)
	}
}

func TestHistory_StorageError(t *testing.T) {
	repo := &fakeScansRepo{listErr: errBoom{}}
	s := newScanService(t, &fakeRepoManager{s: repo}, &fakeClassifier{}, &fakeSampleStore{})

	if _, err := s.History(context.Background(), "u1"); !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable, got %v", err)
	}
}
