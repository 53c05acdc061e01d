package media

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mediavault/media_service/internal/dto"
)

const (
	tokenBlacklistPrefix = "auth:token:blacklist:"
	authCookieName       = "access_token"

	codeStillProcessing = "STILL_PROCESSING"
)

var errUnauthorized = errors.New("unauthorized")

type Handler struct {
	service   Service
	jwtSecret []byte
	rdb       *redis.Client
}

func NewHandler(service Service, jwtSecret []byte, rdb *redis.Client) *Handler {
	return &Handler{
		service:   service,
		jwtSecret: jwtSecret,
		rdb:       rdb,
	}
}

// Routes строит таблицу маршрутов один раз при старте: статические пути
// и параметризованные шаблоны в одном ServeMux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /media/upload-request", h.RequestUpload)
	mux.HandleFunc("POST /media/upload-complete", h.CompleteUpload)
	mux.HandleFunc("GET /media", h.ListMedia)
	mux.HandleFunc("GET /media/{id}", h.GetMedia)
	mux.HandleFunc("PUT /media/{id}", h.UpdateMedia)
	mux.HandleFunc("DELETE /media/{id}", h.DeleteMedia)
	mux.HandleFunc("GET /media/{id}/download", h.DownloadMedia)
	return mux
}

func (h *Handler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	var req dto.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	auth, err := h.service.InitiateUpload(r.Context(), UploadInput{
		FileName: req.FileName,
		MimeType: req.MimeType,
		Size:     req.Size,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapAuthorization(auth))
}

func (h *Handler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	var req dto.CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}
	if req.UploadID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "uploadId is required")
		return
	}

	// Несовпадение сигнатуры — не ошибка, а терминальный статус invalid:
	// вызывающий должен смотреть на status, а не на код ответа.
	result, err := h.service.CompleteUpload(r.Context(), req.UploadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapMetadata(result))
}

func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	result, err := h.service.GetFileMetadata(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapMetadata(result))
}

func (h *Handler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	var req dto.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	auth, err := h.service.UpdateFile(r.Context(), r.PathValue("id"), UploadInput{
		FileName: req.FileName,
		MimeType: req.MimeType,
		Size:     req.Size,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAuthorization(auth))
}

func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	deleted, err := h.service.DeleteFile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteResponse{Deleted: deleted})
}

func (h *Handler) DownloadMedia(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	result, err := h.service.GetFileMetadata(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch result.Record.Status {
	case StatusValidated:
		if result.DownloadURL == "" {
			writeError(w, http.StatusConflict, codeStillProcessing, "download url is not available yet")
			return
		}
		http.Redirect(w, r, result.DownloadURL, http.StatusTemporaryRedirect)
	case StatusUploaded:
		writeError(w, http.StatusConflict, codeStillProcessing, "file is still being processed")
	default:
		writeError(w, http.StatusBadRequest, CodeValidationError,
			"file is not available for download in status "+string(result.Record.Status))
	}
}

func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	filter, includeURLs, err := parseSearchQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	result, err := h.service.SearchFiles(r.Context(), filter, includeURLs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]dto.MediaResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapMetadata(item))
	}

	writeJSON(w, http.StatusOK, dto.MediaListResponse{
		Items: items,
		Pagination: dto.PaginationResponse{
			Page:            result.Pagination.Page,
			Limit:           result.Pagination.Limit,
			TotalItems:      result.Pagination.TotalItems,
			TotalPages:      result.Pagination.TotalPages,
			HasNextPage:     result.Pagination.HasNextPage,
			HasPreviousPage: result.Pagination.HasPreviousPage,
		},
	})
}

func parseSearchQuery(r *http.Request) (SearchFilter, bool, error) {
	q := r.URL.Query()
	filter := SearchFilter{
		MimeType:  q.Get("mimeType"),
		FileName:  q.Get("fileName"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if status := q.Get("status"); status != "" {
		s := Status(status)
		if !s.IsValid() {
			return SearchFilter{}, false, errors.New("unknown status " + status)
		}
		filter.Status = s
	}

	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return SearchFilter{}, false, errors.New("startDate must be RFC3339")
		}
		filter.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return SearchFilter{}, false, errors.New("endDate must be RFC3339")
		}
		filter.EndDate = &t
	}

	if v := q.Get("minSize"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return SearchFilter{}, false, errors.New("minSize must be an integer")
		}
		filter.MinSize = &n
	}
	if v := q.Get("maxSize"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return SearchFilter{}, false, errors.New("maxSize must be an integer")
		}
		filter.MaxSize = &n
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return SearchFilter{}, false, errors.New("page must be an integer")
		}
		filter.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return SearchFilter{}, false, errors.New("limit must be an integer")
		}
		filter.Limit = n
	}

	includeURLs := q.Get("includeUrls") == "true" || q.Get("includeUrls") == "1"
	return filter, includeURLs, nil
}

func (h *Handler) ensureAuthorized(r *http.Request) (string, error) {
	tokenString, err := h.tokenFromRequest(r)
	if err != nil {
		return "", err
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errUnauthorized
	}

	if claims.ID == "" || claims.UserID == "" {
		return "", errUnauthorized
	}

	if h.rdb != nil {
		key := tokenBlacklistPrefix + claims.ID
		exists, redisErr := h.rdb.Exists(r.Context(), key).Result()
		if redisErr != nil {
			return "", redisErr
		}
		if exists > 0 {
			return "", errUnauthorized
		}
	}

	return claims.UserID, nil
}

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if token, err := extractBearerToken(r.Header.Get("Authorization")); err == nil {
		return token, nil
	}

	if cookie, err := r.Cookie(authCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, nil
		}
	}

	return "", errUnauthorized
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errUnauthorized
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errUnauthorized
	}

	return token, nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnauthorized) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется авторизация: войдите в систему")
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// writeServiceError отображает доменную ошибку в HTTP-ответ.
func writeServiceError(w http.ResponseWriter, err error) {
	if e, ok := AsError(err); ok {
		writeError(w, e.HTTPStatus, e.Code, e.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func mapAuthorization(auth UploadAuthorization) dto.UploadCredentialResponse {
	return dto.UploadCredentialResponse{
		UploadID: auth.UploadID,
		URL:      auth.URL,
		Expires:  auth.ExpiresAt.Unix(),
	}
}

func mapMetadata(result FileMetadata) dto.MediaResponse {
	record := result.Record
	resp := dto.MediaResponse{
		ID:            record.ID.Hex(),
		FileName:      record.OriginalName,
		MimeType:      record.MimeType,
		Size:          record.FileSize,
		Status:        string(record.Status),
		StorageKey:    record.StorageKey,
		StorageBucket: record.StorageBucket,
		CreatedAt:     record.CreatedAt.Unix(),
		UpdatedAt:     record.UpdatedAt.Unix(),
		DownloadURL:   result.DownloadURL,
	}
	if record.UploadedAt != nil {
		resp.UploadedAt = record.UploadedAt.Unix()
	}
	return resp
}
