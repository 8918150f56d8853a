// Package server exposes the assistant over HTTP: authentication, document
// search and download, and the inference endpoints.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"aeroassist/internal/domain"
	"aeroassist/internal/inference"
	"aeroassist/internal/service"
	"aeroassist/internal/store"
)

// Server wires the HTTP routes to the assistant facade.
type Server struct {
	assistant *service.Assistant
	registry  *store.Store
	logger    *log.Logger
}

func New(assistant *service.Assistant, registry *store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{assistant: assistant, registry: registry, logger: logger}
}

// Router builds the gin engine with all API routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/api/authenticate", s.authenticate)

	authorized := router.Group("/api", s.requireAuth)
	authorized.GET("/document/:file_hash", s.downloadDocument)
	authorized.GET("/search_documents", s.searchDocuments)
	authorized.POST("/search_documents", s.searchDocuments)
	authorized.GET("/inference/search", s.inferenceSearch)
	authorized.POST("/inference/search", s.inferenceSearch)
	authorized.POST("/inference/query", s.inferenceQuery)

	return router
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// requireAuth accepts a bearer token from the Authorization header or a
// "token" cookie.
func (s *Server) requireAuth(c *gin.Context) {
	token := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	} else if cookie, err := c.Cookie("token"); err == nil {
		token = cookie
	}
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	username, ok, err := s.registry.VerifyToken(c.Request.Context(), token)
	if err != nil {
		s.logger.Error("token verification failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set("username", username)
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	token, err := s.registry.Authenticate(c.Request.Context(), body.Username, body.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.logger.Error("authentication failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) downloadDocument(c *gin.Context) {
	path, err := s.assistant.DocumentPath(c.Request.Context(), c.Param("file_hash"))
	if errors.Is(err, service.ErrDocumentNotFound) {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("document lookup failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.File(path)
}

// queryParam reads {query} from the JSON body on POST or the query string on
// GET.
func queryParam(c *gin.Context) (string, bool) {
	if c.Request.Method == http.MethodGet {
		return c.Query("query"), true
	}
	var body struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", false
	}
	return body.Query, true
}

func (s *Server) searchDocuments(c *gin.Context) {
	query, ok := queryParam(c)
	if !ok {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	refs, err := s.assistant.SearchDocuments(c.Request.Context(), query)
	if err != nil {
		s.logger.Error("document search failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if refs == nil {
		refs = []domain.DocumentRef{}
	}
	c.JSON(http.StatusOK, refs)
}

func (s *Server) inferenceSearch(c *gin.Context) {
	query, ok := queryParam(c)
	if !ok {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	refs, err := s.assistant.SearchIndex(c.Request.Context(), query)
	if err != nil {
		s.logger.Error("index search failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if refs == nil {
		refs = []domain.DocumentRef{}
	}
	c.JSON(http.StatusOK, refs)
}

func (s *Server) inferenceQuery(c *gin.Context) {
	var body struct {
		InferenceInteractions []domain.InferenceInteraction `json:"inference_interactions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	result, err := s.assistant.Query(c.Request.Context(), c.GetString("username"), body.InferenceInteractions)
	if errors.Is(err, inference.ErrEmptyHistory) {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("inference failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if result.Sources == nil {
		result.Sources = []domain.InferenceSource{}
	}
	c.JSON(http.StatusOK, result)
}
