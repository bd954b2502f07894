package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// handleExportCSV streams the batch results as a CSV download.
func (s *Server) handleExportCSV(c *gin.Context) {
	batchID, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	results, err := s.db.ListBatchResults(batchID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=name-check-batch-%d.csv", batchID))

	writer := csv.NewWriter(c.Writer)
	header := []string{
		"name", "cleaned_name", "is_available", "exact_matches", "similar_matches",
		"is_valid", "errors", "warnings", "score", "recommendation", "processing_ms",
	}
	if err := writer.Write(header); err != nil {
		return
	}

	for _, result := range results {
		var exactNames []string
		for _, m := range result.ExactMatches() {
			exactNames = append(exactNames, m.CompanyName)
		}
		var similarNames []string
		for _, m := range result.SimilarMatches() {
			similarNames = append(similarNames, fmt.Sprintf("%s (%d)", m.CompanyName, m.Similarity))
		}

		row := []string{
			result.Name,
			result.NameNormalized,
			strconv.FormatBool(result.Available),
			strings.Join(exactNames, "; "),
			strings.Join(similarNames, "; "),
			strconv.FormatBool(result.Valid),
			strings.Join(result.Errors(), "; "),
			strings.Join(result.Warnings(), "; "),
			strconv.Itoa(result.Score),
			result.Recommendation,
			strconv.FormatInt(result.ProcessingTimeMs, 10),
		}
		if err := writer.Write(row); err != nil {
			return
		}
	}
	writer.Flush()
}

// handleExportJSON returns the batch results as a JSON download.
func (s *Server) handleExportJSON(c *gin.Context) {
	batchID, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	results, err := s.db.ListBatchResults(batchID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]CheckResultDTO, 0, len(results))
	for _, result := range results {
		dtos = append(dtos, FromModel(result))
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=name-check-batch-%d.json", batchID))
	c.JSON(http.StatusOK, dtos)
}
