package studies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/killallgit/study-api/internal/models"
	apperrors "github.com/killallgit/study-api/pkg/errors"
)

// FilesystemStore implements Store on top of a samples directory
type FilesystemStore struct {
	root   string
	locks  *pathLocks
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*FilesystemStore)(nil)

// Option configures a FilesystemStore
type Option func(*FilesystemStore)

// WithLogger sets the logger used for skipped files and self-healing
func WithLogger(logger *zap.Logger) Option {
	return func(s *FilesystemStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileLocks enables advisory lock files next to every rewritten file
func WithFileLocks(enabled bool) Option {
	return func(s *FilesystemStore) {
		s.locks = newPathLocks(enabled)
	}
}

// WithClock overrides the clock used for ledger timestamps
func WithClock(now func() time.Time) Option {
	return func(s *FilesystemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFilesystemStore creates a study store rooted at samplesDir
func NewFilesystemStore(samplesDir string, opts ...Option) (*FilesystemStore, error) {
	if strings.TrimSpace(samplesDir) == "" {
		return nil, fmt.Errorf("samples directory is required")
	}

	abs, err := filepath.Abs(samplesDir)
	if err != nil {
		return nil, fmt.Errorf("resolving samples directory: %w", err)
	}

	s := &FilesystemStore{
		root:   abs,
		locks:  newPathLocks(false),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SamplesDir returns the absolute samples root
func (s *FilesystemStore) SamplesDir() string {
	return s.root
}

// ValidID reports whether id can be used as a single path element
// (a study directory name or a model filename).
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return false
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return false
	}
	return filepath.Base(id) == id
}

func (s *FilesystemStore) studyPath(studyID string) string {
	return filepath.Join(s.root, studyID)
}

// existingStudy validates studyID and returns its directory
func (s *FilesystemStore) existingStudy(studyID string) (string, error) {
	if !ValidID(studyID) {
		return "", apperrors.InvalidIDError("study id", studyID)
	}

	dir := s.studyPath(studyID)
	ok, err := isDir(dir)
	if err != nil {
		return "", apperrors.StorageError("stat study", err)
	}
	if !ok {
		return "", apperrors.NotFound("Study", studyID)
	}
	return dir, nil
}

// EnsureStructure creates the annotations dir, videos dir and an empty
// ledger for a study when they are missing. It is idempotent.
func (s *FilesystemStore) EnsureStructure(ctx context.Context, studyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.existingStudy(studyID)
	if err != nil {
		return err
	}
	return s.ensureStructure(dir)
}

func (s *FilesystemStore) ensureStructure(dir string) error {
	for _, sub := range []string{AnnotationsDir, VideosDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return apperrors.StorageError("create "+sub+" directory", err)
		}
	}

	ledger := filepath.Join(dir, VideosDir, VideoLedger)
	exists, err := isRegularFile(ledger)
	if err != nil {
		return apperrors.StorageError("stat video ledger", err)
	}
	if !exists {
		if err := writeJSONAtomic(ledger, []models.Video{}); err != nil {
			return apperrors.StorageError("initialize video ledger", err)
		}
		s.logger.Info("initialized study structure", zap.String("study", filepath.Base(dir)))
	}
	return nil
}

// CreateStudy creates an empty study directory with its structure
func (s *FilesystemStore) CreateStudy(ctx context.Context, studyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidID(studyID) {
		return apperrors.InvalidIDError("study id", studyID)
	}

	dir := s.studyPath(studyID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.StorageError("create study", err)
	}
	return s.ensureStructure(dir)
}

// ListStudies scans the samples root and reports every study directory
func (s *FilesystemStore) ListStudies(ctx context.Context) ([]models.StudySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, apperrors.StorageError("create samples directory", err)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, apperrors.StorageError("list studies", err)
	}

	studies := make([]models.StudySummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !ValidID(entry.Name()) {
			continue
		}

		dir := filepath.Join(s.root, entry.Name())
		if err := s.ensureStructure(dir); err != nil {
			return nil, err
		}

		files, err := s.modelFiles(dir)
		if err != nil {
			return nil, err
		}

		studies = append(studies, models.StudySummary{
			ID:         entry.Name(),
			Name:       entry.Name(),
			Path:       "/samples/" + entry.Name(),
			ModelCount: len(files),
		})
	}

	return studies, nil
}

// modelFiles returns the recognized model filenames in dir, sorted by name
func (s *FilesystemStore) modelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.StorageError("list models", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !models.IsModelFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// GetStudy returns a study's models, merged annotations and video ledger.
// Model URLs are built from baseURL so LAN clients get reachable addresses.
func (s *FilesystemStore) GetStudy(ctx context.Context, studyID, baseURL string) (*models.Study, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := s.existingStudy(studyID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureStructure(dir); err != nil {
		return nil, err
	}

	files, err := s.modelFiles(dir)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(baseURL, "/")
	studyModels := make([]models.Model, 0, len(files))
	for _, f := range files {
		modelType, _ := models.ModelTypeFromFilename(f)
		modelURL := fmt.Sprintf("%s/samples/%s/%s", base, url.PathEscape(studyID), url.PathEscape(f))
		studyModels = append(studyModels, models.NewModel(f, modelURL, modelType))
	}

	annotations, err := s.readAnnotations(filepath.Join(dir, AnnotationsDir))
	if err != nil {
		return nil, err
	}

	videos, err := s.readLedger(filepath.Join(dir, VideosDir, VideoLedger))
	if err != nil {
		return nil, err
	}

	return &models.Study{
		ID:          studyID,
		Name:        studyID,
		Models:      studyModels,
		Annotations: annotations,
		Videos:      videos,
	}, nil
}

// readAnnotations concatenates every array-valued *.json file in dir.
// Files that do not hold an array are skipped, and so are array elements
// that do not decode as an annotation.
func (s *FilesystemStore) readAnnotations(dir string) ([]models.Annotation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.StorageError("list annotations", err)
	}

	all := make([]models.Annotation, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var elements []json.RawMessage
		if err := readJSON(filepath.Join(dir, entry.Name()), &elements); err != nil {
			s.logger.Warn("skipping annotation file",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}

		for i, raw := range elements {
			if string(raw) == "null" {
				continue
			}
			var a models.Annotation
			if err := json.Unmarshal(raw, &a); err != nil {
				s.logger.Warn("skipping annotation",
					zap.String("file", entry.Name()),
					zap.Int("index", i),
					zap.Error(err))
				continue
			}
			all = append(all, a)
		}
	}
	return all, nil
}

func (s *FilesystemStore) readLedger(path string) ([]models.Video, error) {
	var videos []models.Video
	if err := readJSON(path, &videos); err != nil {
		if os.IsNotExist(err) {
			return []models.Video{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCorruptLedger, "video ledger is unreadable")
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// SaveAnnotations replaces the annotation file of one model with exactly the
// given slice. There is no merge: the last writer wins.
func (s *FilesystemStore) SaveAnnotations(ctx context.Context, studyID, modelID string, annotations []models.Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if modelID == "" {
		return apperrors.MissingFieldError("modelId")
	}
	if !ValidID(modelID) {
		return apperrors.InvalidIDError("modelId", modelID)
	}

	dir, err := s.existingStudy(studyID)
	if err != nil {
		return err
	}

	ok, err := isRegularFile(filepath.Join(dir, modelID))
	if err != nil {
		return apperrors.StorageError("stat model", err)
	}
	if !ok {
		return apperrors.NotFound("Model", modelID)
	}

	slice := make([]models.Annotation, 0, len(annotations))
	for i, a := range annotations {
		if a.ModelID == "" {
			a.ModelID = modelID
		}
		if a.ModelID != modelID {
			return apperrors.ValidationError("annotations", "annotation belongs to a different model").
				WithDetail("index", i).
				WithDetail("modelId", a.ModelID)
		}
		slice = append(slice, a)
	}

	if err := s.ensureStructure(dir); err != nil {
		return err
	}

	target := filepath.Join(dir, AnnotationsDir, modelID+".json")
	release, err := s.locks.acquire(ctx, target)
	if err != nil {
		return apperrors.StorageError("lock annotations", err)
	}
	defer release()

	if err := writeJSONAtomic(target, slice); err != nil {
		return apperrors.StorageError("write annotations", err)
	}
	return nil
}

// AppendVideo appends a reference to the study's ledger with a server
// timestamp and returns the stored entry plus the new ledger length.
// Timestamps strictly increase within a ledger.
func (s *FilesystemStore) AppendVideo(ctx context.Context, studyID string, video models.Video) (models.Video, int, error) {
	if err := ctx.Err(); err != nil {
		return models.Video{}, 0, err
	}

	if strings.TrimSpace(video.Name) == "" {
		return models.Video{}, 0, apperrors.MissingFieldError("name")
	}

	dir, err := s.existingStudy(studyID)
	if err != nil {
		return models.Video{}, 0, err
	}
	if err := s.ensureStructure(dir); err != nil {
		return models.Video{}, 0, err
	}

	ledger := filepath.Join(dir, VideosDir, VideoLedger)
	release, err := s.locks.acquire(ctx, ledger)
	if err != nil {
		return models.Video{}, 0, apperrors.StorageError("lock video ledger", err)
	}
	defer release()

	videos, err := s.readLedger(ledger)
	if err != nil {
		return models.Video{}, 0, err
	}

	ts := s.now().UnixMilli()
	if n := len(videos); n > 0 && ts <= videos[n-1].Timestamp {
		ts = videos[n-1].Timestamp + 1
	}
	video.Timestamp = ts
	videos = append(videos, video)

	if err := writeJSONAtomic(ledger, videos); err != nil {
		return models.Video{}, 0, apperrors.StorageError("write video ledger", err)
	}
	return video, len(videos), nil
}
