package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// Article is the API representation of a published article.
type Article struct {
	ID        uuid.UUID              `json:"id"`
	TripID    uuid.UUID              `json:"trip_id"`
	AuthorID  string                 `json:"author_id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Snapshot  domain.ArticleSnapshot `json:"snapshot"`
	CreatedAt time.Time              `json:"created_at"`
}

// ArticleList is the body of GET /articles. Snapshots are omitted.
type ArticleList struct {
	Data       []ArticleSummary `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// ArticleSummary is an article without its snapshot.
type ArticleSummary struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishArticle handles POST /trips/{tripId}/articles.
func (s *Server) PublishArticle(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripScope(w, r)
	if !ok {
		return
	}
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	a, err := s.articles.Publish(r.Context(), user, tripID, body.Title, body.Body)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, articleToResponse(a))
}

// ListArticles handles GET /articles. Public.
func (s *Server) ListArticles(w http.ResponseWriter, r *http.Request) {
	params := pagination(r)
	list, total, err := s.articles.ListPaged(r.Context(), params)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	data := make([]ArticleSummary, len(list))
	for i, a := range list {
		data[i] = ArticleSummary{ID: a.ID, TripID: a.TripID, AuthorID: a.AuthorID, Title: a.Title, CreatedAt: a.CreatedAt}
	}
	writeJSON(w, http.StatusOK, ArticleList{
		Data:       data,
		Pagination: newPagination(params, total),
	})
}

// GetArticle handles GET /articles/{articleId}. Public.
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "articleId")
	if !ok {
		return
	}
	a, err := s.articles.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articleToResponse(a))
}

// DeleteArticle handles DELETE /articles/{articleId}. Only the author may
// delete; anyone else gets 404.
func (s *Server) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "articleId")
	if !ok {
		return
	}
	if err := s.articles.Delete(r.Context(), user, id); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func articleToResponse(a domain.Article) Article {
	return Article{
		ID:        a.ID,
		TripID:    a.TripID,
		AuthorID:  a.AuthorID,
		Title:     a.Title,
		Body:      a.Body,
		Snapshot:  a.Snapshot,
		CreatedAt: a.CreatedAt,
	}
}
