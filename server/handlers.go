package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/gleaner/collector"
	"github.com/poiesic/gleaner/core"
	"github.com/poiesic/gleaner/ingestion"
	"github.com/poiesic/gleaner/scheduler"
	"github.com/poiesic/gleaner/storage"
)

const defaultMaxHits = 5

// Service is everything the HTTP surface needs from a gleaner instance.
type Service interface {
	Ingest(ctx context.Context, item ingestion.Item) ingestion.Result
	IngestWithThreshold(ctx context.Context, item ingestion.Item, threshold float64) ingestion.Result
	Collect(ctx context.Context, source, query string, cursor, limit int) (collector.Report, error)
	Command(text string) string
	Jobs() []scheduler.JobInfo
	DrainResults() []string
	Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error)
}

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Content    string         `json:"content" binding:"required"`
	Metadata   map[string]any `json:"metadata"`
	SourceType string         `json:"source_type"`
	// Threshold overrides the configured threshold for the source type.
	Threshold *float64 `json:"threshold" binding:"omitempty,min=0,max=1"`
}

// IngestResponse reports a pipeline outcome.
type IngestResponse struct {
	Status      string  `json:"status"`
	Stage       string  `json:"stage"`
	Accepted    bool    `json:"accepted"`
	Reason      string  `json:"reason,omitempty"`
	ContentHash string  `json:"content_hash,omitempty"`
	Score       float64 `json:"score"`
	Chunks      int     `json:"chunks"`
}

// CollectRequest is the body of POST /api/v1/collect/:source.
type CollectRequest struct {
	Query  string `json:"query" binding:"required"`
	Cursor int    `json:"cursor" binding:"min=0"`
	Limit  int    `json:"limit" binding:"min=0"`
}

// CollectResponse reports one collector run.
type CollectResponse struct {
	Source   string           `json:"source"`
	Query    string           `json:"query"`
	Summary  string           `json:"summary"`
	Accepted int              `json:"accepted"`
	Results  []IngestResponse `json:"results"`
}

// CommandRequest is the body of POST /api/v1/commands.
type CommandRequest struct {
	Text string `json:"text" binding:"required"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query   string `json:"query" binding:"required"`
	MaxHits int    `json:"max_hits" binding:"min=0"`
}

// SearchHit is one search result.
type SearchHit struct {
	ID          core.ID           `json:"id"`
	ContentHash string            `json:"content_hash"`
	Index       int               `json:"index"`
	Text        string            `json:"text"`
	Metadata    map[string]string `json:"metadata"`
	Score       float32           `json:"score"`
}

type handlers struct {
	svc Service
}

func toIngestResponse(res ingestion.Result) IngestResponse {
	return IngestResponse{
		Status:      res.Status,
		Stage:       res.Stage,
		Accepted:    res.Accepted,
		Reason:      string(res.Reason),
		ContentHash: res.ContentHash,
		Score:       res.Score,
		Chunks:      res.Chunks,
	}
}

// ingest handles POST /api/v1/ingest. Rejections are outcomes, not errors:
// accepted items answer 201 and everything else 200.
func (h *handlers) ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metadata := core.Metadata(req.Metadata)
	if err := metadata.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := ingestion.Item{
		Content:    req.Content,
		Metadata:   metadata,
		SourceType: core.ParseSourceType(req.SourceType),
	}

	var res ingestion.Result
	if req.Threshold != nil {
		res = h.svc.IngestWithThreshold(c.Request.Context(), item, *req.Threshold)
	} else {
		res = h.svc.Ingest(c.Request.Context(), item)
	}

	status := http.StatusOK
	if res.Accepted {
		status = http.StatusCreated
	}
	c.JSON(status, toIngestResponse(res))
}

// collect handles POST /api/v1/collect/:source.
func (h *handlers) collect(c *gin.Context) {
	var req CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.Collect(c.Request.Context(), c.Param("source"), req.Query, req.Cursor, req.Limit)
	if errors.Is(err, collector.ErrUnknownSource) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	results := make([]IngestResponse, 0, len(report.Results))
	for _, r := range report.Results {
		results = append(results, toIngestResponse(r))
	}
	c.JSON(http.StatusOK, CollectResponse{
		Source:   report.Source,
		Query:    report.Query,
		Summary:  report.Summary,
		Accepted: report.Accepted(),
		Results:  results,
	})
}

// command handles POST /api/v1/commands.
func (h *handlers) command(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": h.svc.Command(req.Text)})
}

// results handles GET /api/v1/scheduler/results. Reading drains the queue.
func (h *handlers) results(c *gin.Context) {
	drained := h.svc.DrainResults()
	c.JSON(http.StatusOK, gin.H{
		"results": drained,
		"summary": scheduler.FormatResults(drained),
	})
}

// jobs handles GET /api/v1/scheduler/jobs.
func (h *handlers) jobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.svc.Jobs()})
}

// search handles POST /api/v1/search.
func (h *handlers) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxHits == 0 {
		req.MaxHits = defaultMaxHits
	}

	found, err := h.svc.Search(c.Request.Context(), req.Query, req.MaxHits)
	if errors.Is(err, storage.ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	hits := make([]SearchHit, 0, len(found))
	for _, r := range found {
		hits = append(hits, SearchHit{
			ID:          r.Chunk.Id,
			ContentHash: r.Chunk.ContentHash,
			Index:       r.Chunk.Index,
			Text:        r.Chunk.Text,
			Metadata:    r.Chunk.Metadata,
			Score:       r.Score,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
