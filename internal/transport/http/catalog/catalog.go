package catalog

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/pos/internal/transport/http/response"
)

type service interface {
	GetCatalog(ctx context.Context) (ordersvc.Catalog, error)
}

// GetCatalog returns the active products and the shop details.
func GetCatalog(w http.ResponseWriter, r *http.Request, service service) {
	c, err := service.GetCatalog(r.Context())
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, c)
}
