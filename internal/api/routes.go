package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mca-name-check/backend/internal/engine"
	"mca-name-check/backend/internal/match"
	"mca-name-check/backend/internal/registry"
	"mca-name-check/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	TermsPath      string
	AllowedOrigins []string
	SilentDB       bool
	RegistryConfig registry.Config
	FetchTimeout   time.Duration
	SearchLimit    int
	Workers        int
}

// Server wires HTTP handlers with persistence and the check engine.
type Server struct {
	db             *store.Database
	engine         *engine.Engine
	notifier       *CheckNotifier
	allowedOrigins []string
	workers        int
	jobMu          sync.Mutex
	activeJob      *checkJob
}

// NewServer constructs the API server. When registry API credentials are
// configured the live client backs the conflict search; otherwise the
// locally ingested company master serves as the data source.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	validator, err := engine.NewValidator(cfg.TermsPath)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	var source registry.Source
	if strings.TrimSpace(cfg.RegistryConfig.APIKey) != "" {
		client, err := registry.NewClient(cfg.RegistryConfig)
		if err != nil {
			return nil, fmt.Errorf("registry client: %w", err)
		}
		source = client
		logrus.WithFields(logrus.Fields{
			"rows":    cfg.RegistryConfig.Rows,
			"ttl":     cfg.RegistryConfig.CacheTTL,
			"timeout": cfg.RegistryConfig.Timeout,
		}).Info("registry API lookup enabled")
	} else {
		source = registry.NewDatabaseSource(db, cfg.SearchLimit)
		count, countErr := db.CountCompanies()
		if countErr != nil {
			logrus.WithError(countErr).Warn("count companies")
		}
		logrus.WithField("companies", count).Info("registry API disabled - using local company master")
	}

	searcher := engine.NewConflictSearcher(source, cfg.FetchTimeout)
	eng, err := engine.New(searcher, validator)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Server{
		db:             db,
		engine:         eng,
		notifier:       NewCheckNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
		workers:        cfg.Workers,
	}, nil
}

// Router configures gin routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/check", s.handleCheck)
		api.GET("/check/status", s.handleCheckStatus)
		api.POST("/check/cancel", s.handleCancelCheck)
		api.GET("/check/stream", s.handleCheckStream)

		api.GET("/batches", s.handleListBatches)
		api.POST("/batches", s.handleUpload)
		api.GET("/batches/:id", s.handleGetBatch)
		api.POST("/batches/:id/check", s.handleRunBatch)
		api.GET("/batches/:id/results", s.handleBatchResults)
		api.GET("/batches/:id/export/csv", s.handleExportCSV)
		api.GET("/batches/:id/export/json", s.handleExportJSON)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	companies, err := s.db.CountCompanies()
	if err != nil {
		logrus.WithError(err).Warn("count companies")
	}
	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"workers":   s.workerCount(),
	})
}

// handleCheck runs the engine synchronously for a single candidate name.
func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	result, err := s.engine.Check(c.Request.Context(), name)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListBatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 50
	}

	batches, total, err := s.db.ListBatches(page*pageSize, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]BatchDTO, 0, len(batches))
	for _, batch := range batches {
		dtos = append(dtos, BatchFromModel(batch))
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": total})
}

func (s *Server) handleGetBatch(c *gin.Context) {
	batchID, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	batch, err := s.db.GetBatch(batchID)
	if err != nil {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("batch %d not found", batchID))
		return
	}
	c.JSON(http.StatusOK, BatchFromModel(*batch))
}

// handleUpload ingests a CSV of candidate names into a new batch.
func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}

	batchName := strings.TrimSpace(c.PostForm("name"))
	if batchName == "" {
		batchName = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	owner := strings.TrimSpace(c.PostForm("owner"))

	path, cleanup, err := saveFormFile(header)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	defer cleanup()

	parsed, err := parseNameCSV(path)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("parse csv: %w", err))
		return
	}
	if parsed.rowCount == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("no candidate names found in file"))
		return
	}

	batch, err := s.db.CreateBatch(batchName, owner, header.Filename)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if err := s.db.ReplaceBatchNames(batch.ID, parsed.rows); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if err := s.db.UpdateBatchStats(batch.ID, parsed.rowCount, parsed.uniqueNames, parsed.duplicateRows); err != nil {
		logrus.WithError(err).WithField("batch_id", batch.ID).Warn("update batch stats")
	}

	logrus.WithFields(logrus.Fields{
		"batch_id":   batch.ID,
		"batch_name": batchName,
		"rows":       parsed.rowCount,
		"unique":     parsed.uniqueNames,
		"duplicates": parsed.duplicateRows,
	}).Info("candidate name batch uploaded")

	c.JSON(http.StatusOK, UploadResponse{
		BatchID:       batch.ID,
		BatchName:     batchName,
		Owner:         owner,
		RowCount:      parsed.rowCount,
		UniqueNames:   parsed.uniqueNames,
		DuplicateRows: parsed.duplicateRows,
	})
}

// handleRunBatch starts an asynchronous availability check over a batch.
func (s *Server) handleRunBatch(c *gin.Context) {
	batchID, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	batch, err := s.db.GetBatch(batchID)
	if err != nil {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("batch %d not found", batchID))
		return
	}

	var req RunBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	total, err := s.db.CountBatchNames(batch.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if total == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("batch has no candidate names"))
		return
	}

	s.jobMu.Lock()
	job, err := s.startBatchCheck(batch, req, total)
	s.jobMu.Unlock()
	if err != nil {
		s.renderError(c, http.StatusConflict, err)
		return
	}

	c.JSON(http.StatusAccepted, RunBatchResponse{
		JobID:   job.id,
		BatchID: batch.ID,
		Total:   total,
	})
}

func (s *Server) handleCancelCheck(c *gin.Context) {
	s.jobMu.Lock()
	s.cancelBatchCheck()
	s.jobMu.Unlock()
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) handleCheckStatus(c *gin.Context) {
	s.jobMu.Lock()
	job := s.activeJob
	s.jobMu.Unlock()

	status := s.notifier.LastStatus()

	resp := StatusResponse{Running: job != nil}
	if job != nil {
		resp.JobID = job.id
		resp.BatchID = job.batchID
		resp.Total = job.total
	}
	if status != nil {
		resp.State = status.Type
		resp.Message = status.Message
		if status.Processed != 0 {
			resp.Processed = status.Processed
		}
		if status.Total != 0 {
			resp.Total = status.Total
		}
		if status.BatchID != 0 {
			resp.BatchID = status.BatchID
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCheckStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("check websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("check websocket closed")
			} else {
				logrus.WithError(err).Warn("check websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleBatchResults(c *gin.Context) {
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
	c.JSON(http.StatusOK, ResultsResponse{Items: dtos, Total: len(dtos)})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseUintParam(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid id: %s", value)
	}
	return uint(parsed), nil
}

func saveFormFile(header *multipart.FileHeader) (string, func(), error) {
	src, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "name-batch-*.csv")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("copy upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

type csvParseResult struct {
	rows          []store.BatchName
	rowCount      int
	uniqueNames   int
	duplicateRows int
}

// parseNameCSV reads candidate names from the uploaded CSV, detecting a name
// column from the header row when one is present.
func parseNameCSV(path string) (*csvParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		nameCol         = -1
		headerProcessed bool
		seen            = make(map[string]struct{})
		rows            []store.BatchName
		rowIndex        int
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if !headerProcessed {
			nameCol = detectNameColumn(record)
			headerProcessed = true
			if nameCol >= 0 {
				continue
			}
			nameCol = 0
		}

		if nameCol < 0 || nameCol >= len(record) {
			nameCol = 0
		}

		value := strings.TrimSpace(strings.TrimPrefix(record[nameCol], "\ufeff"))
		if value == "" {
			continue
		}

		rowIndex++
		key := match.NormalizeKey(value)
		if key == "" {
			key = strings.ToLower(value)
		}
		rows = append(rows, store.BatchName{
			Name:           value,
			NameNormalized: key,
			RowIndex:       rowIndex,
		})
		seen[key] = struct{}{}
	}

	duplicates := rowIndex - len(seen)
	if duplicates < 0 {
		duplicates = 0
	}

	return &csvParseResult{
		rows:          rows,
		rowCount:      rowIndex,
		uniqueNames:   len(seen),
		duplicateRows: duplicates,
	}, nil
}

func detectNameColumn(record []string) int {
	for idx, value := range record {
		normalized := strings.ToLower(strings.TrimSpace(value))
		switch normalized {
		case "name", "names", "company", "company_name", "company name", "candidate":
			return idx
		}
	}
	return -1
}
