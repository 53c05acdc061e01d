package media

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// sizeTolerance — допустимое относительное расхождение заявленного
	// и фактического размера.
	sizeTolerance = 0.10
	// sizeSlackBytes — абсолютный допуск в байтах; расхождение фатально,
	// только когда превышены оба порога одновременно.
	sizeSlackBytes = 1024

	// sampleLength — размер выборки байт для проверки сигнатуры.
	sampleLength = 512

	// genericMimeType никогда не считается конфликтующим с заявленным типом.
	genericMimeType = "application/octet-stream"

	dbTimeout      = 10 * time.Second
	storageTimeout = 30 * time.Second
)

type Service interface {
	InitiateUpload(ctx context.Context, input UploadInput) (UploadAuthorization, error)
	CompleteUpload(ctx context.Context, id string) (FileMetadata, error)
	GetFileMetadata(ctx context.Context, id string) (FileMetadata, error)
	UpdateFile(ctx context.Context, id string, input UploadInput) (UploadAuthorization, error)
	DeleteFile(ctx context.Context, id string) (bool, error)
	SearchFiles(ctx context.Context, filter SearchFilter, includeDownloadURLs bool) (SearchResult, error)
}

// UploadInput — заявленные клиентом атрибуты файла. Не вызывают доверия,
// пока не сверены с хранилищем.
type UploadInput struct {
	FileName string
	MimeType string
	Size     int64
}

// UploadAuthorization — выданный креденшл на загрузку.
type UploadAuthorization struct {
	UploadID  string
	URL       string
	ExpiresAt time.Time
}

// FileMetadata — публичное представление записи. DownloadURL заполняется
// только для validated-файлов и только если удалось выписать креденшл.
type FileMetadata struct {
	Record      MediaRecord
	DownloadURL string
}

type SearchResult struct {
	Items      []FileMetadata
	Pagination Pagination
}

// ServicePolicy — политика приёма загрузок.
type ServicePolicy struct {
	AllowedMimeTypes []string
	MaxFileSize      int64
}

type service struct {
	repo    Repository
	storage ObjectStorage
	events  EventProducer
	allowed map[string]bool
	maxSize int64
	logger  *slog.Logger
}

func NewService(repo Repository, storage ObjectStorage, events EventProducer, policy ServicePolicy, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]bool, len(policy.AllowedMimeTypes))
	for _, mt := range policy.AllowedMimeTypes {
		allowed[mt] = true
	}

	return &service{
		repo:    repo,
		storage: storage,
		events:  events,
		allowed: allowed,
		maxSize: policy.MaxFileSize,
		logger:  logger,
	}
}

func (s *service) InitiateUpload(ctx context.Context, input UploadInput) (UploadAuthorization, error) {
	declared, err := s.validateDeclared(input)
	if err != nil {
		return UploadAuthorization{}, err
	}

	record := MediaRecord{
		ID:           primitive.NewObjectID(),
		OriginalName: declared.FileName,
		MimeType:     declared.MimeType,
		FileSize:     declared.Size,
		Status:       StatusPending,
	}

	// Запись со статусом pending обязана существовать до выдачи креденшла.
	insertCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if _, err := s.repo.Insert(insertCtx, record); err != nil {
		return UploadAuthorization{}, WrapDatabase("insert", record.ID.Hex(), err, true)
	}

	return s.issueUploadCredential(ctx, record)
}

func (s *service) CompleteUpload(ctx context.Context, id string) (FileMetadata, error) {
	oid, err := parseMediaID(id)
	if err != nil {
		return FileMetadata{}, err
	}

	record, err := s.findRecord(ctx, oid)
	if err != nil {
		return FileMetadata{}, err
	}

	key := record.StorageKey
	if key == "" {
		key = ObjectKeyFor(record.ID, record.OriginalName)
	}

	storageCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	exists, err := s.storage.ObjectExists(storageCtx, key)
	if err != nil {
		return FileMetadata{}, WrapStorage("stat object", id, err, true)
	}
	if !exists {
		return FileMetadata{}, NewNotFound("object for media %s not found in storage", id)
	}

	actual, err := s.storage.ActualMetadata(storageCtx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return FileMetadata{}, NewNotFound("object for media %s not found in storage", id)
		}
		return FileMetadata{}, WrapStorage("fetch metadata", id, err, true)
	}

	declaredMime := record.MimeType
	if err := s.checkConsistency(record, actual); err != nil {
		return FileMetadata{}, err
	}

	// Переносим в запись фактические атрибуты из хранилища.
	record.StorageKey = actual.Key
	record.StorageBucket = actual.Bucket
	record.FileSize = actual.Size
	if actual.MimeType != "" && actual.MimeType != genericMimeType {
		record.MimeType = actual.MimeType
	}
	uploadedAt := actual.LastModified
	record.UploadedAt = &uploadedAt
	s.applyStatus(&record, StatusUploaded)

	updateCtx, cancelUpdate := context.WithTimeout(ctx, dbTimeout)
	defer cancelUpdate()
	if err := s.repo.Update(updateCtx, record); err != nil {
		return FileMetadata{}, WrapDatabase("update", id, err, true)
	}

	// Проверка сигнатуры по заявленному при создании MIME-типу.
	// Ошибка чтения выборки и несовпадение сигнатуры неразличимы для
	// вызывающего: обе завершают попытку статусом invalid.
	final := StatusValidated
	reason := ""
	sample, err := s.storage.SampleBytes(storageCtx, key, sampleLength)
	switch {
	case err != nil:
		final = StatusInvalid
		reason = "content sampling failed"
		s.logger.Error("content sampling failed", "media_id", id, "error", err)
	case !ValidateFileContent(sample, declaredMime):
		final = StatusInvalid
		reason = "content signature mismatch"
		if detected, ok := DetectMimeType(sample); ok {
			s.logger.Warn("content signature mismatch",
				"media_id", id, "declared", declaredMime, "detected", detected)
		}
	}

	s.applyStatus(&record, final)

	finalCtx, cancelFinal := context.WithTimeout(ctx, dbTimeout)
	defer cancelFinal()
	if err := s.repo.Update(finalCtx, record); err != nil {
		return FileMetadata{}, WrapDatabase("update", id, err, true)
	}

	s.publishEvent(ctx, record, reason)

	result := FileMetadata{Record: record}
	if record.Status == StatusValidated {
		result.DownloadURL = s.mintDownloadURL(ctx, record)
	}
	return result, nil
}

func (s *service) GetFileMetadata(ctx context.Context, id string) (FileMetadata, error) {
	oid, err := parseMediaID(id)
	if err != nil {
		return FileMetadata{}, err
	}

	record, err := s.findRecord(ctx, oid)
	if err != nil {
		return FileMetadata{}, err
	}

	result := FileMetadata{Record: record}
	if record.Status == StatusValidated {
		result.DownloadURL = s.mintDownloadURL(ctx, record)
	}
	return result, nil
}

func (s *service) UpdateFile(ctx context.Context, id string, input UploadInput) (UploadAuthorization, error) {
	declared, err := s.validateDeclared(input)
	if err != nil {
		return UploadAuthorization{}, err
	}

	oid, err := parseMediaID(id)
	if err != nil {
		return UploadAuthorization{}, err
	}

	record, err := s.findRecord(ctx, oid)
	if err != nil {
		return UploadAuthorization{}, err
	}

	// Отвязываем запись от ранее загруженного объекта. Неудача удаления
	// не блокирует замену.
	if record.StorageKey != "" {
		deleteCtx, cancel := context.WithTimeout(ctx, storageTimeout)
		if err := s.storage.DeleteObject(deleteCtx, record.StorageKey); err != nil {
			s.logger.Warn("failed to delete previous object",
				"media_id", id, "storage_key", record.StorageKey, "error", err)
		}
		cancel()
	}

	record.OriginalName = declared.FileName
	record.MimeType = declared.MimeType
	record.FileSize = declared.Size
	record.StorageKey = ""
	record.StorageBucket = ""
	record.UploadedAt = nil
	s.applyStatus(&record, StatusPending)

	updateCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := s.repo.Update(updateCtx, record); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return UploadAuthorization{}, NewNotFound("media %s not found", id)
		}
		return UploadAuthorization{}, WrapDatabase("update", id, err, true)
	}

	return s.issueUploadCredential(ctx, record)
}

func (s *service) DeleteFile(ctx context.Context, id string) (bool, error) {
	oid, err := parseMediaID(id)
	if err != nil {
		return false, err
	}

	record, err := s.findRecord(ctx, oid)
	if err != nil {
		return false, err
	}

	storageDeleted := true
	key := record.StorageKey
	if key == "" {
		key = ObjectKeyFor(record.ID, record.OriginalName)
	}

	deleteCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	if err := s.storage.DeleteObject(deleteCtx, key); err != nil {
		// Неудача в хранилище не блокирует удаление метаданных,
		// но итог false: возможна ручная сверка.
		storageDeleted = false
		s.logger.Error("storage deletion failed", "media_id", id, "storage_key", key, "error", err)
	}
	cancel()

	metadataDeleted := true
	dbCtx, cancelDB := context.WithTimeout(ctx, dbTimeout)
	defer cancelDB()
	if err := s.repo.DeleteByID(dbCtx, oid); err != nil {
		metadataDeleted = false
		s.logger.Error("metadata deletion failed", "media_id", id, "error", err)
	}

	if metadataDeleted {
		s.publishEvent(ctx, record, "deleted")
	}

	return storageDeleted && metadataDeleted, nil
}

func (s *service) SearchFiles(ctx context.Context, filter SearchFilter, includeDownloadURLs bool) (SearchResult, error) {
	filter.Normalize()

	findCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	records, err := s.repo.Find(findCtx, filter)
	if err != nil {
		return SearchResult{}, WrapDatabase("find", "", err, true)
	}

	total, err := s.repo.Count(findCtx, filter)
	if err != nil {
		return SearchResult{}, WrapDatabase("count", "", err, true)
	}

	items := make([]FileMetadata, 0, len(records))
	for _, record := range records {
		item := FileMetadata{Record: record}
		if includeDownloadURLs && record.Status == StatusValidated {
			item.DownloadURL = s.mintDownloadURL(ctx, record)
		}
		items = append(items, item)
	}

	return SearchResult{
		Items:      items,
		Pagination: NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// validateDeclared проверяет заявленные атрибуты до каких-либо побочных эффектов.
func (s *service) validateDeclared(input UploadInput) (UploadInput, error) {
	filename := SanitizeFilename(input.FileName)
	if err := ValidateFilename(filename); err != nil {
		return UploadInput{}, NewValidation("invalid file name: %v", err)
	}

	mimeType, err := NormalizeMimeType(input.MimeType)
	if err != nil {
		return UploadInput{}, NewValidation("invalid mime type %q", input.MimeType)
	}
	if !s.allowed[mimeType] {
		return UploadInput{}, NewValidation("mime type %q is not allowed", mimeType)
	}

	if input.Size <= 0 {
		return UploadInput{}, NewValidation("file size must be positive")
	}
	if input.Size > s.maxSize {
		return UploadInput{}, NewValidation("file size %d exceeds limit %d", input.Size, s.maxSize)
	}

	return UploadInput{FileName: filename, MimeType: mimeType, Size: input.Size}, nil
}

// checkConsistency сверяет заявленные атрибуты с фактическими.
// Расхождение размера фатально, только когда превышены и относительный,
// и абсолютный пороги. Расхождение MIME — всегда лишь предупреждение.
func (s *service) checkConsistency(record MediaRecord, actual ObjectMetadata) error {
	diff := record.FileSize - actual.Size
	if diff < 0 {
		diff = -diff
	}
	tolerance := sizeTolerance * float64(record.FileSize)
	if float64(diff) > tolerance && diff > sizeSlackBytes {
		return NewValidation("declared size %d differs from actual size %d beyond tolerance",
			record.FileSize, actual.Size)
	}

	if actual.MimeType != "" && actual.MimeType != genericMimeType && actual.MimeType != record.MimeType {
		s.logger.Warn("declared mime type differs from storage-reported type",
			"media_id", record.ID.Hex(), "declared", record.MimeType, "actual", actual.MimeType)
	}

	return nil
}

func (s *service) issueUploadCredential(ctx context.Context, record MediaRecord) (UploadAuthorization, error) {
	key := ObjectKeyFor(record.ID, record.OriginalName)

	credCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	cred, err := s.storage.IssueUploadCredential(credCtx, key, record.MimeType)
	if err != nil {
		// Запись остаётся pending без объекта — принятая несогласованность.
		s.logger.Error("credential issuance failed, pending record orphaned",
			"media_id", record.ID.Hex(), "error", err)
		return UploadAuthorization{}, WrapStorage("issue upload credential", record.ID.Hex(), err, true)
	}

	return UploadAuthorization{
		UploadID:  record.ID.Hex(),
		URL:       cred.URL,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

func (s *service) mintDownloadURL(ctx context.Context, record MediaRecord) string {
	key := record.StorageKey
	if key == "" {
		return ""
	}

	urlCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	url, err := s.storage.IssueDownloadCredential(urlCtx, key, record.OriginalName)
	if err != nil {
		s.logger.Warn("failed to mint download url", "media_id", record.ID.Hex(), "error", err)
		return ""
	}
	return url
}

// applyStatus переводит запись в новый статус. Недопустимые переходы
// логируются, но не блокируются: при гонке завершений побеждает
// последняя запись.
func (s *service) applyStatus(record *MediaRecord, next Status) {
	if !record.Status.CanTransitionTo(next) {
		s.logger.Warn("unexpected status transition",
			"media_id", record.ID.Hex(), "from", string(record.Status), "to", string(next))
	}
	record.Status = next
}

func (s *service) publishEvent(ctx context.Context, record MediaRecord, reason string) {
	if s.events == nil {
		return
	}

	event := MediaEvent{
		MediaID:   record.ID.Hex(),
		Status:    string(record.Status),
		Reason:    reason,
		Timestamp: time.Now(),
	}
	if err := s.events.SendMediaEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish media event", "media_id", event.MediaID, "error", err)
	}
}

func (s *service) findRecord(ctx context.Context, oid primitive.ObjectID) (MediaRecord, error) {
	findCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	record, err := s.repo.FindByID(findCtx, oid)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return MediaRecord{}, NewNotFound("media %s not found", oid.Hex())
		}
		return MediaRecord{}, WrapDatabase("find", oid.Hex(), err, true)
	}
	return record, nil
}

func parseMediaID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, NewValidation("invalid media id %q", id)
	}
	return oid, nil
}
