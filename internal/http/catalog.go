package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfwise/circulation/internal/entities"
)

// CatalogStore is the read surface of the catalog for the HTTP layer.
type CatalogStore interface {
	GetBook(id uint) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	SearchBooks(query string) ([]entities.Book, error)
	GetMember(id uint) (*entities.Member, error)
}

type CatalogController struct {
	store CatalogStore
}

func NewCatalogController(store CatalogStore) *CatalogController {
	return &CatalogController{store: store}
}

func (controller *CatalogController) GetAllBooks(c *gin.Context) {
	books, err := controller.store.GetAllBooks()
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

func (controller *CatalogController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBook(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func (controller *CatalogController) SearchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	books, err := controller.store.SearchBooks(query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

func (controller *CatalogController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := controller.store.GetMember(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, member)
}
