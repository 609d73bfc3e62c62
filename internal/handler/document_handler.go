package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"licity-service/internal/model"
	"licity-service/internal/storage"
	"licity-service/internal/tenantscope"
	"licity-service/pkg/database"
	"licity-service/pkg/logger"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxUploadSize = 25 << 20 // 25 MB

// ListDocuments returns documents across the caller's active tenant scope.
// Filters: type, contract_id, client_id, expiring_days (validade within N days).
func ListDocuments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "list")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"documents": []model.Document{}, "total": 0})
	}

	query := database.GetDB().Model(&model.Document{}).Where("tenant_id IN ?", tenantIDs)

	if docType := c.QueryParam("type"); docType != "" {
		query = query.Where("type = ?", docType)
	}
	if contractID := c.QueryParam("contract_id"); contractID != "" {
		query = query.Where("contract_id = ?", contractID)
	}
	if clientID := c.QueryParam("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if days := c.QueryParam("expiring_days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expiring_days"})
		}
		now := time.Now()
		query = query.Where("validade IS NOT NULL AND validade >= ? AND validade <= ?",
			now, now.AddDate(0, 0, n))
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count documents", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve documents"})
	}

	var documents []model.Document
	if err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&documents).Error; err != nil {
		log.Error("Failed to list documents", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve documents"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"documents": documents,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// UploadDocument accepts a multipart upload. The blob is written first and
// the row inserted second; a failed insert removes the blob so the store
// never keeps orphans.
func UploadDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "upload")
	prometheus.RecordStorageOperation("save")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := strconv.ParseUint(c.FormValue("tenant_id"), 10, 32)
	if err != nil || tenantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	if err := authorizeTenant(c, userID, uint(tenantID)); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant document upload rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("tenant_id", tenantID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fileHeader.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = fileHeader.Filename
	}
	docType := c.FormValue("type")
	if docType == "" {
		docType = model.DocOutros
	}

	doc := model.Document{
		TenantID:  uint(tenantID),
		Name:      name,
		Type:      docType,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		CreatedBy: userID,
		Version:   1,
	}

	if v := c.FormValue("validade"); v != "" {
		validade, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validade must be YYYY-MM-DD"})
		}
		doc.Validade = &validade
	}
	if v := c.FormValue("contract_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contract_id"})
		}
		cid := uint(id)
		doc.ContractID = &cid
	}
	if v := c.FormValue("client_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client_id"})
		}
		cid := uint(id)
		doc.ClientID = &cid
	}
	if v := c.FormValue("observacoes"); v != "" {
		doc.Observacoes = v
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read upload"})
	}
	defer src.Close()

	filePath := storage.BuildPath(uint(tenantID), fileHeader.Filename)
	size, err := storage.Default().Save(filePath, src)
	if err != nil {
		log.Error("Failed to store uploaded file", zap.Error(err), zap.String("path", filePath))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store file"})
	}
	doc.FilePath = filePath
	doc.FileSize = &size

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&doc).Error; err != nil {
		// Row insert failed after the blob landed; remove the blob
		if rmErr := storage.Default().Remove(filePath); rmErr != nil {
			log.Error("Failed to remove orphaned blob", zap.Error(rmErr), zap.String("path", filePath))
		}
		log.Error("Failed to create document record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create document"})
	}

	log.Info("Document uploaded",
		zap.Uint("id", doc.ID),
		zap.Uint("tenant_id", doc.TenantID),
		zap.String("path", filePath),
		zap.Int64("size", size))

	return c.JSON(http.StatusCreated, doc)
}

// GetDocument retrieves one document's metadata, scoped to the caller's
// tenants
func GetDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "get")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var doc model.Document
	if err := database.GetDB().
		Where("id = ? AND tenant_id IN ?", id, tenantIDs).
		First(&doc).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	return c.JSON(http.StatusOK, doc)
}

// DownloadDocument streams the stored blob. The blob path is re-checked
// against the row's tenant before the store is touched.
func DownloadDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "download")
	prometheus.RecordStorageOperation("open")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document ID"})
	}

	var doc model.Document
	if err := database.GetDB().
		Where("id = ? AND tenant_id IN ?", id, tenantIDs).
		First(&doc).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	if !storage.TenantOwns(doc.TenantID, doc.FilePath) {
		log.Error("Blob path outside document's tenant namespace",
			zap.Uint("id", doc.ID),
			zap.String("path", doc.FilePath))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open file"})
	}

	blob, err := storage.Default().Open(doc.FilePath)
	if err != nil {
		log.Error("Failed to open blob", zap.Error(err), zap.String("path", doc.FilePath))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
	}
	defer blob.Close()

	mime := doc.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Name+`"`)
	return c.Stream(http.StatusOK, mime, blob)
}

// ExpiringDocuments returns documents whose validade falls within the next
// N days (default 30), across the active scope.
func ExpiringDocuments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "expiring")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"documents": []model.Document{}})
	}

	days := 30
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid days"})
		}
		days = n
	}

	now := time.Now()
	defer prometheus.TrackDBOperation("query")(time.Now())
	var documents []model.Document
	if err := database.GetDB().
		Where("tenant_id IN ? AND validade IS NOT NULL AND validade >= ? AND validade <= ?",
			tenantIDs, now, now.AddDate(0, 0, days)).
		Order("validade asc").
		Find(&documents).Error; err != nil {
		log.Error("Failed to list expiring documents", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve documents"})
	}

	return c.JSON(http.StatusOK, echo.Map{"documents": documents, "days": days})
}

// DeleteDocument soft deletes the row, then removes the blob. A blob left
// behind by a failed remove is harmless; a dangling row is not.
func DeleteDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "delete")
	prometheus.RecordStorageOperation("remove")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document ID"})
	}

	var doc model.Document
	if err := database.GetDB().First(&doc, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	if err := authorizeTenant(c, userID, doc.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant document delete rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("document_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&doc).Error; err != nil {
		log.Error("Failed to delete document", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete document"})
	}

	if err := storage.Default().Remove(doc.FilePath); err != nil {
		log.Warn("Failed to remove blob after delete",
			zap.Error(err),
			zap.String("path", doc.FilePath))
	}

	log.Info("Document deleted", zap.Uint("id", doc.ID), zap.Uint("tenant_id", doc.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Document deleted successfully"})
}
