package reprintreceipt

import (
	"context"
	"errors"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/response"
	"github.com/google/uuid"
)

type service interface {
	Reprint(ctx context.Context, staffID uuid.UUID) (receipt.Document, error)
}

type reprintResponse struct {
	Receipt     receipt.Document `json:"receipt"`
	ReceiptText string           `json:"receiptText"`
	PrintError  string           `json:"printError,omitempty"`
}

// Reprint prints the caller's last receipt again. The receipt is returned even
// when the printer fails so it can be printed from the browser.
func Reprint(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	doc, err := service.Reprint(r.Context(), st.ID)

	var printErr *session.PrintDispatchError
	if err != nil && !errors.As(err, &printErr) {
		response.Fail(w, err)

		return
	}

	resp := reprintResponse{Receipt: doc, ReceiptText: doc.Text(receipt.DefaultWidth)}
	if printErr != nil {
		resp.PrintError = printErr.Error()
	}

	response.JSON(w, http.StatusOK, resp)
}
