package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finance-ledger-backend/internal/repository"
	"finance-ledger-backend/internal/services/ingestion"
)

type ImportHandler struct {
	pipeline *ingestion.Pipeline
	batches  *repository.ImportBatchRepository
	log      zerolog.Logger
}

func NewImportHandler(pipeline *ingestion.Pipeline, batches *repository.ImportBatchRepository, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{pipeline: pipeline, batches: batches, log: log}
}

type ingestRequest struct {
	Rows              []ingestion.RawRow `json:"rows"`
	DefaultCategoryID *uint              `json:"default_category_id"`
}

// Ingest accepts a JSON batch of raw rows and runs the pipeline
// synchronously, returning the counters.
func (h *ImportHandler) Ingest(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	var req ingestRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(req.Rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no rows submitted"})
		return
	}

	h.run(c, user, "", req.Rows, req.DefaultCategoryID)
}

// Upload accepts a multipart CSV file with a `date,description,amount,category`
// header and runs the pipeline synchronously.
func (h *ImportHandler) Upload(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	rows, err := parseCSVRows(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Info().Str("file", header.Filename).Int("rows", len(rows)).Msg("csv upload received")
	h.run(c, user, header.Filename, rows, nil)
}

func (h *ImportHandler) run(c *gin.Context, user, filename string, rows []ingestion.RawRow, defaultCategoryID *uint) {
	batch, err := h.batches.Start(c.Request.Context(), user, filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	res, ingestErr := h.pipeline.Ingest(c.Request.Context(), user, rows, defaultCategoryID)

	status := "completed"
	if ingestErr != nil {
		status = "failed"
	}
	if err := h.batches.Finish(c.Request.Context(), batch.ID, status,
		res.Total, res.Prepared, res.Inserted, res.SkippedDuplicates, res.FlaggedCount); err != nil {
		h.log.Error().Err(err).Str("batch_id", batch.ID.String()).Msg("failed to finalize batch record")
	}

	if ingestErr != nil {
		// Counters reflect what was durably applied before the failure;
		// the caller may retry, duplicate suppression makes it safe.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    ingestErr.Error(),
			"batch_id": batch.ID.String(),
			"result":   res,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batch.ID.String(),
		"result":   res,
	})
}

// GetBatch returns one batch record with its final counters.
func (h *ImportHandler) GetBatch(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	batch, err := h.batches.GetByID(c.Request.Context(), user, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// parseCSVRows maps a headertable CSV into raw rows. Column order is
// taken from the header; unknown columns are ignored.
func parseCSVRows(r io.Reader) ([]ingestion.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errCSVHeader
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []ingestion.RawRow
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // malformed line, the validator drops what it cannot parse anyway
		}
		if strings.Join(rec, "") == "" {
			continue
		}
		rows = append(rows, ingestion.RawRow{
			Date:          field(rec, "date"),
			Description:   field(rec, "description"),
			Amount:        field(rec, "amount"),
			CategoryLabel: field(rec, "category"),
		})
	}
	return rows, nil
}
