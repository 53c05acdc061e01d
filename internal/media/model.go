package media

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status — статус жизненного цикла файла.
type Status string

const (
	// StatusPending — запись создана, файл ещё не загружен в хранилище
	StatusPending Status = "pending"
	// StatusUploaded — файл найден в хранилище, размер/MIME сверены
	StatusUploaded Status = "uploaded"
	// StatusValidated — сигнатура содержимого совпала с заявленным типом
	StatusValidated Status = "validated"
	// StatusInvalid — сигнатура не совпала либо не удалось прочитать выборку байт
	StatusInvalid Status = "invalid"
	// StatusFailed — зарезервирован для невосстановимых ошибок хранилища, потоками не выставляется
	StatusFailed Status = "failed"
)

// validTransitions — матрица допустимых переходов статусов.
// Переход в pending возможен из любого статуса (повторная загрузка через UpdateFile)
// и обрабатывается отдельно в CanTransitionTo.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusUploaded},
	StatusUploaded: {StatusValidated, StatusInvalid},
}

// CanTransitionTo проверяет, допустим ли переход в статус next.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusPending {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid проверяет, что значение статуса известно.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUploaded, StatusValidated, StatusInvalid, StatusFailed:
		return true
	}
	return false
}

// MediaRecord представляет метаданные файла, хранящиеся в MongoDB.
// MimeType и FileSize заявляются клиентом при создании и заменяются
// фактическими значениями из хранилища после завершения загрузки.
type MediaRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalName  string             `bson:"original_name" json:"original_name"`
	MimeType      string             `bson:"mime_type" json:"mime_type"`
	FileSize      int64              `bson:"file_size" json:"file_size"`
	Status        Status             `bson:"status" json:"status"`
	StorageKey    string             `bson:"storage_key,omitempty" json:"storage_key,omitempty"`
	StorageBucket string             `bson:"storage_bucket,omitempty" json:"storage_bucket,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
	UploadedAt    *time.Time         `bson:"uploaded_at,omitempty" json:"uploaded_at,omitempty"`
}
